package eventbus

import "time"

// Event topics.
const (
	// Tool events
	EventToolInvoked = "tool:invoked"
	EventToolFailed  = "tool:failed"

	// Agent events
	EventAgentStarted   = "agent:started"
	EventAgentCompleted = "agent:completed"
	EventAgentError     = "agent:error"

	// Vision events
	EventVisionCaption = "vision:caption"
	EventVisionDetect  = "vision:detect"
	EventVisionError   = "vision:error"
)

// ToolInvokedData describes one completed tool call.
type ToolInvokedData struct {
	SessionID string        `json:"session_id,omitempty"`
	Tool      string        `json:"tool"`
	Input     string        `json:"input"`
	Output    string        `json:"output,omitempty"`
	Detail    interface{}   `json:"detail,omitempty"`
	Duration  time.Duration `json:"duration"`
	Succeeded bool          `json:"succeeded"`
	Error     string        `json:"error,omitempty"`
}

// AgentEventData describes one agent run.
type AgentEventData struct {
	SessionID string        `json:"session_id"`
	Question  string        `json:"question,omitempty"`
	Answer    string        `json:"answer,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// VisionEventData describes one vision model call.
type VisionEventData struct {
	Source string `json:"source,omitempty"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
