package generation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Kind names the family of generated payloads sharing a cache namespace.
type Kind string

const (
	KindSyllabus  Kind = "syllabus"
	KindPillars   Kind = "pillars"
	KindGrammar   Kind = "grammar"
	KindResources Kind = "resources"
	KindNotes     Kind = "notes"
)

type Cache struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Kind          Kind           `gorm:"column:kind;not null;uniqueIndex:idx_generation_cache_kind_key,priority:1" json:"kind"`
	CacheKey      string         `gorm:"column:cache_key;not null;uniqueIndex:idx_generation_cache_kind_key,priority:2" json:"cache_key"`
	Payload       datatypes.JSON `gorm:"column:payload;not null" json:"payload"`
	Provider      string         `gorm:"column:provider" json:"provider,omitempty"`
	Model         string         `gorm:"column:model" json:"model,omitempty"`
	PromptVersion string         `gorm:"column:prompt_version" json:"prompt_version,omitempty"`
	ExpiresAt     *time.Time     `gorm:"column:expires_at;index" json:"expires_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (Cache) TableName() string { return "generation_cache" }

func (c *Cache) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Cache) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Meta describes who produced a cached payload.
type Meta struct {
	Provider      string
	Model         string
	PromptVersion string
	TTL           time.Duration
}
