package curriculum

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// ParseLevel maps free-form input to a Level, defaulting to beginner.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "intermediate", "medium":
		return LevelIntermediate
	case "advanced", "expert":
		return LevelAdvanced
	default:
		return LevelBeginner
	}
}

type Step struct {
	Key              string `json:"key"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

type Module struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Steps       []Step `json:"steps"`
}

type SyllabusContent struct {
	Summary   string   `json:"summary,omitempty"`
	Modules   []Module `json:"modules"`
	Citations []string `json:"citations,omitempty"`
}

// StepRef is a step together with the module it belongs to.
type StepRef struct {
	Step
	ModuleTitle string `json:"module_title"`
	ModuleIndex int    `json:"module_index"`
}

// Steps flattens modules into document order.
func (c SyllabusContent) Steps() []StepRef {
	var out []StepRef
	for mi, m := range c.Modules {
		for _, s := range m.Steps {
			out = append(out, StepRef{Step: s, ModuleTitle: m.Title, ModuleIndex: mi})
		}
	}
	return out
}

func (c SyllabusContent) FindStep(key string) (StepRef, bool) {
	for _, ref := range c.Steps() {
		if ref.Key == key {
			return ref, true
		}
	}
	return StepRef{}, false
}

// ModuleTitles returns the non-empty module titles in order.
func (c SyllabusContent) ModuleTitles() []string {
	out := make([]string, 0, len(c.Modules))
	for _, m := range c.Modules {
		if t := strings.TrimSpace(m.Title); t != "" {
			out = append(out, t)
		}
	}
	return out
}

type Syllabus struct {
	ID           uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID                           `gorm:"type:uuid;not null;index" json:"user_id"`
	Topic        string                              `gorm:"column:topic;not null;index" json:"topic"`
	DisciplineID *uuid.UUID                          `gorm:"type:uuid;column:discipline_id;index" json:"discipline_id,omitempty"`
	Level        Level                               `gorm:"column:level;not null" json:"level"`
	Content      datatypes.JSONType[SyllabusContent] `gorm:"column:content;not null" json:"content"`
	Grammar      datatypes.JSONType[Grammar]         `gorm:"column:grammar;not null" json:"grammar"`
	CacheKey     string                              `gorm:"column:cache_key;index" json:"cache_key"`
	Provider     string                              `gorm:"column:provider" json:"provider"`
	Model        string                              `gorm:"column:model" json:"model"`
	CreatedAt    time.Time                           `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time                           `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt                      `gorm:"index" json:"deleted_at,omitempty"`
}

func (Syllabus) TableName() string { return "syllabus" }

func (s *Syllabus) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
