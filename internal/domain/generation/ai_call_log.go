package generation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AICallLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Kind         string     `gorm:"column:kind;not null;index" json:"kind"`
	Provider     string     `gorm:"column:provider;not null;index" json:"provider"`
	Model        string     `gorm:"column:model" json:"model"`
	Attempt      int        `gorm:"column:attempt;not null" json:"attempt"`
	Success      bool       `gorm:"column:success;not null" json:"success"`
	Error        string     `gorm:"column:error" json:"error,omitempty"`
	PromptChars  int        `gorm:"column:prompt_chars" json:"prompt_chars"`
	OutputChars  int        `gorm:"column:output_chars" json:"output_chars"`
	InputTokens  int        `gorm:"column:input_tokens" json:"input_tokens"`
	OutputTokens int        `gorm:"column:output_tokens" json:"output_tokens"`
	LatencyMS    int64      `gorm:"column:latency_ms" json:"latency_ms"`
	CreatedAt    time.Time  `gorm:"not null;index" json:"created_at"`
}

func (AICallLog) TableName() string { return "ai_call_log" }

func (l *AICallLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
