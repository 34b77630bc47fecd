package httptransport

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthService reports process and host health.
type HealthService struct {
	startedAt time.Time
	version   string
}

// NewHealthService creates the health handler.
func NewHealthService(version string) *HealthService {
	return &HealthService{
		startedAt: time.Now(),
		version:   version,
	}
}

// Register mounts the health route on the open API group.
func (s *HealthService) Register(router *gin.RouterGroup) {
	router.GET("/health", s.handleHealth)
}

func (s *HealthService) handleHealth(c *gin.Context) {
	payload := gin.H{
		"status":     "ok",
		"version":    s.version,
		"uptime":     time.Since(s.startedAt).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		payload["memory_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		payload["cpu_percent"] = percents[0]
	}

	RespondSuccess(c, http.StatusOK, payload, "")
}
