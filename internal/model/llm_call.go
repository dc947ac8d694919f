package model

import "time"

const (
	LLMCallOK    = "ok"
	LLMCallError = "error"
)

// LLMCall is the audit record of a single provider round trip.
type LLMCall struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID uint      `gorm:"index" json:"workspace_id"`
	SessionID   uint      `gorm:"index" json:"session_id"`
	Provider    string    `gorm:"size:32;not null" json:"provider"`
	Model       string    `gorm:"size:128" json:"model"`
	Status      string    `gorm:"size:16;not null" json:"status"`
	ErrorType   string    `gorm:"size:32" json:"error_type,omitempty"`
	LatencyMS   int64     `json:"latency_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

func (LLMCall) TableName() string {
	return "llm_calls"
}

// All lists every persisted model in migration order.
func All() []any {
	return []any{&User{}, &Workspace{}, &Paper{}, &ChatSession{}, &Message{}, &LLMCall{}}
}
