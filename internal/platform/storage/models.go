package storage

import (
	"time"

	"gorm.io/datatypes"
)

// ToolInvocation is one recorded tool call, kept for audit and debugging.
// Detail carries tool-specific structure, e.g. the parsed detections of a
// detection call.
type ToolInvocation struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	SessionID  string         `gorm:"column:session_id;size:64;index" json:"session_id"`
	Tool       string         `gorm:"column:tool;size:64;index" json:"tool"`
	Input      string         `gorm:"column:input" json:"input"`
	Output     string         `gorm:"column:output" json:"output"`
	Detail     datatypes.JSON `gorm:"column:detail" json:"detail,omitempty"`
	DurationMs int64          `gorm:"column:duration_ms" json:"duration_ms"`
	Succeeded  bool           `gorm:"column:succeeded" json:"succeeded"`
	Error      string         `gorm:"column:error;size:255" json:"error,omitempty"`
	CreatedAt  time.Time      `gorm:"column:created_at;index" json:"created_at"`
}

func (ToolInvocation) TableName() string {
	return "tool_invocations"
}
