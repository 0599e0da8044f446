package curriculum

import "strings"

type PillarPriority string

const (
	PriorityCore       PillarPriority = "core"
	PriorityImportant  PillarPriority = "important"
	PriorityNiceToHave PillarPriority = "nice_to_have"
)

// Weight orders priorities; lower sorts first.
func (p PillarPriority) Weight() int {
	switch p {
	case PriorityCore:
		return 0
	case PriorityImportant:
		return 1
	default:
		return 2
	}
}

// NormalizePriority folds the loose labels models return into the three buckets.
func NormalizePriority(raw string) PillarPriority {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.NewReplacer("-", " ", "_", " ").Replace(v)
	v = strings.Join(strings.Fields(v), " ")
	switch v {
	case "core", "essential", "must have", "critical", "required", "fundamental":
		return PriorityCore
	case "important", "recommended", "should have", "high", "medium":
		return PriorityImportant
	default:
		return PriorityNiceToHave
	}
}

type Pillar struct {
	Name      string         `json:"name"`
	Priority  PillarPriority `json:"priority"`
	Topics    []string       `json:"topics"`
	Rationale string         `json:"rationale,omitempty"`
}

const AdditionalTopicsPillar = "Additional Topics"
