package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxLevels is the depth of the discipline taxonomy (L1..L6).
const MaxLevels = 6

// Discipline is one row of the flat L1..L6 taxonomy. Only L1 is required;
// deeper levels are NULL when the row describes a shallower node.
type Discipline struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	L1          string    `gorm:"column:l1;not null;index" json:"l1"`
	L2          *string   `gorm:"column:l2;index" json:"l2,omitempty"`
	L3          *string   `gorm:"column:l3" json:"l3,omitempty"`
	L4          *string   `gorm:"column:l4" json:"l4,omitempty"`
	L5          *string   `gorm:"column:l5" json:"l5,omitempty"`
	L6          *string   `gorm:"column:l6" json:"l6,omitempty"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Discipline) TableName() string { return "discipline" }

func (d *Discipline) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// LevelColumns are the column names in level order.
var LevelColumns = [MaxLevels]string{"l1", "l2", "l3", "l4", "l5", "l6"}

func (d Discipline) levels() [MaxLevels]string {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return strings.TrimSpace(*p)
	}
	return [MaxLevels]string{strings.TrimSpace(d.L1), deref(d.L2), deref(d.L3), deref(d.L4), deref(d.L5), deref(d.L6)}
}

// Path returns the non-empty levels in order, stopping at the first gap.
func (d Discipline) Path() []string {
	out := make([]string, 0, MaxLevels)
	for _, lv := range d.levels() {
		if lv == "" {
			break
		}
		out = append(out, lv)
	}
	return out
}

func (d Discipline) Depth() int { return len(d.Path()) }

// Name is the deepest level's label.
func (d Discipline) Name() string {
	p := d.Path()
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Level returns the label at 1-based level n, or "".
func (d Discipline) Level(n int) string {
	if n < 1 || n > MaxLevels {
		return ""
	}
	return d.levels()[n-1]
}

var ErrLevelGap = errors.New("discipline levels must be contiguous")

// Validate enforces L1 presence and level contiguity.
func (d Discipline) Validate() error {
	lv := d.levels()
	if lv[0] == "" {
		return errors.New("discipline l1 is required")
	}
	seenGap := false
	for i, v := range lv {
		if v == "" {
			seenGap = true
			continue
		}
		if seenGap {
			return fmt.Errorf("%w: l%d set after an empty level", ErrLevelGap, i+1)
		}
	}
	return nil
}

// Normalize trims labels and turns blank deeper levels into NULL.
func (d *Discipline) Normalize() {
	d.L1 = strings.TrimSpace(d.L1)
	for _, p := range []**string{&d.L2, &d.L3, &d.L4, &d.L5, &d.L6} {
		if *p == nil {
			continue
		}
		v := strings.TrimSpace(**p)
		if v == "" {
			*p = nil
			continue
		}
		*p = &v
	}
	d.Description = strings.TrimSpace(d.Description)
	d.Slug = BuildSlug(d.Path())
}

// FromPath builds a discipline from ordered level labels.
func FromPath(path []string, description string) Discipline {
	d := Discipline{Description: description}
	ptr := func(i int) *string {
		if i >= len(path) {
			return nil
		}
		v := path[i]
		return &v
	}
	if len(path) > 0 {
		d.L1 = path[0]
	}
	d.L2, d.L3, d.L4, d.L5, d.L6 = ptr(1), ptr(2), ptr(3), ptr(4), ptr(5)
	d.Normalize()
	return d
}

// BuildSlug joins kebab-cased path segments with "/".
func BuildSlug(path []string) string {
	parts := make([]string, 0, len(path))
	for _, seg := range path {
		if s := kebab(seg); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

func kebab(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// BrowseNode is one child bucket returned when browsing the hierarchy.
type BrowseNode struct {
	Level      int        `json:"level"`
	Name       string     `json:"name"`
	Path       []string   `json:"path"`
	Count      int64      `json:"count"` // rows strictly below this node
	Leaf       bool       `json:"leaf"`
	Discipline *uuid.UUID `json:"discipline_id,omitempty"`
}

// SearchHit is a ranked search result.
type SearchHit struct {
	Discipline Discipline `json:"discipline"`
	Path       []string   `json:"path"`
	Score      int        `json:"score"`
	MatchLevel int        `json:"match_level"`
}
