package eventbus

import (
	"github.com/bytedance/sonic"
	"gorm.io/datatypes"

	"lens-server-go/internal/platform/logging"
	"lens-server-go/internal/platform/storage"
)

// InvocationRecorder subscribes to tool events and writes them to storage.
type InvocationRecorder struct {
	repo   *storage.InvocationRepository
	logger *logging.Logger
}

// NewInvocationRecorder builds a recorder over the given repository.
func NewInvocationRecorder(repo *storage.InvocationRepository, logger *logging.Logger) *InvocationRecorder {
	return &InvocationRecorder{
		repo:   repo,
		logger: logger,
	}
}

// Register subscribes the recorder on the async bus so persistence never
// blocks the tool path.
func (r *InvocationRecorder) Register(bus *AsyncEventBus) error {
	return bus.SubscribeAsync(EventToolInvoked, r.handleToolInvoked)
}

func (r *InvocationRecorder) handleToolInvoked(data ToolInvokedData) {
	record := &storage.ToolInvocation{
		SessionID:  data.SessionID,
		Tool:       data.Tool,
		Input:      data.Input,
		Output:     data.Output,
		DurationMs: data.Duration.Milliseconds(),
		Succeeded:  data.Succeeded,
		Error:      data.Error,
	}

	if data.Detail != nil {
		if encoded, err := sonic.Marshal(data.Detail); err == nil {
			record.Detail = datatypes.JSON(encoded)
		}
	}

	if err := r.repo.Create(record); err != nil {
		r.logger.ErrorTag("EVENT", "failed to persist tool invocation: %v", err)
		return
	}
	r.logger.DebugTag("EVENT", "tool invocation recorded: tool=%s succeeded=%v", data.Tool, data.Succeeded)
}
