package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PathMode string

const (
	PathModeDraft     PathMode = "draft"
	PathModeActive    PathMode = "active"
	PathModeCompleted PathMode = "completed"
)

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCurrent   StepStatus = "current"
	StepCompleted StepStatus = "completed"
)

type PathStep struct {
	Key         string     `json:"key"`
	Title       string     `json:"title"`
	ModuleTitle string     `json:"module_title"`
	Order       int        `json:"order"`
	Selected    bool       `json:"selected"`
	Status      StepStatus `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type LearningPath struct {
	ID          uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID                      `gorm:"type:uuid;not null;index" json:"user_id"`
	SyllabusID  uuid.UUID                      `gorm:"type:uuid;not null;index" json:"syllabus_id"`
	Title       string                         `gorm:"column:title;not null" json:"title"`
	Mode        PathMode                       `gorm:"column:mode;not null;index" json:"mode"`
	Steps       datatypes.JSONType[[]PathStep] `gorm:"column:steps;not null" json:"steps"`
	ConfirmedAt *time.Time                     `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	CompletedAt *time.Time                     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	LastJobID   *uuid.UUID                     `gorm:"type:uuid;column:last_job_id" json:"last_job_id,omitempty"`
	CreatedAt   time.Time                      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time                      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt                 `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningPath) TableName() string { return "learning_path" }

func (p *LearningPath) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// StepList returns a copy of the persisted steps.
func (p *LearningPath) StepList() []PathStep {
	steps := p.Steps.Data()
	out := make([]PathStep, len(steps))
	copy(out, steps)
	return out
}

func (p *LearningPath) SetSteps(steps []PathStep) {
	p.Steps = datatypes.NewJSONType(steps)
}
