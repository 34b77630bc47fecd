package httptransport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lens-server-go/internal/platform/logging"
	"lens-server-go/internal/platform/storage"
)

// InvocationService serves the recorded tool invocation history.
type InvocationService struct {
	repo   *storage.InvocationRepository
	logger *logging.Logger
}

// NewInvocationService wires the invocation history handlers.
func NewInvocationService(repo *storage.InvocationRepository, logger *logging.Logger) *InvocationService {
	if logger == nil {
		logger = logging.DefaultLogger
	}
	return &InvocationService{
		repo:   repo,
		logger: logger,
	}
}

// Register mounts the invocation routes.
func (s *InvocationService) Register(router *gin.RouterGroup) {
	router.GET("/invocations", s.handleList)
	router.GET("/invocations/:id", s.handleGet)
	s.logger.InfoTag("HTTP", "invocation routes registered")
}

func (s *InvocationService) handleList(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, total, err := s.repo.List(storage.ListQuery{
		SessionID: c.Query("session_id"),
		Tool:      c.Query("tool"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	RespondSuccess(c, http.StatusOK, gin.H{
		"total":       total,
		"invocations": records,
	}, "")
}

func (s *InvocationService) handleGet(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid invocation id", nil)
		return
	}

	record, err := s.repo.Get(uint(id))
	if err != nil {
		RespondError(c, http.StatusNotFound, "invocation not found", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, record, "")
}
