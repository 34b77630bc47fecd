package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lens-server-go/internal/domain/agent"
	"lens-server-go/internal/platform/logging"
)

// ChatService answers questions through the agent loop over plain HTTP.
type ChatService struct {
	runner *agent.Runner
	logger *logging.Logger
}

// NewChatService wires the chat handler.
func NewChatService(runner *agent.Runner, logger *logging.Logger) *ChatService {
	if logger == nil {
		logger = logging.DefaultLogger
	}
	return &ChatService{
		runner: runner,
		logger: logger,
	}
}

// Register mounts the chat routes.
func (s *ChatService) Register(router *gin.RouterGroup) {
	router.POST("/chat", s.handleChat)
	s.logger.InfoTag("HTTP", "chat routes registered")
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

func (s *ChatService) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "message is required", nil)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	answer, err := s.runner.Ask(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		s.logger.ErrorTag("HTTP", "chat failed: session=%s error=%v", sessionID, err)
		RespondError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	RespondSuccess(c, http.StatusOK, gin.H{
		"session_id": sessionID,
		"answer":     answer,
	}, "")
}
