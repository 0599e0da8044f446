package curriculum

import (
	"strings"
	"time"
)

type BloomLevel string

const (
	BloomRemember   BloomLevel = "remember"
	BloomUnderstand BloomLevel = "understand"
	BloomApply      BloomLevel = "apply"
	BloomAnalyze    BloomLevel = "analyze"
	BloomEvaluate   BloomLevel = "evaluate"
	BloomCreate     BloomLevel = "create"
)

var bloomOrder = []BloomLevel{
	BloomRemember,
	BloomUnderstand,
	BloomApply,
	BloomAnalyze,
	BloomEvaluate,
	BloomCreate,
}

// Rank is the 1-based position of the level in Bloom's taxonomy, 0 when unknown.
func (b BloomLevel) Rank() int {
	for i, lvl := range bloomOrder {
		if lvl == b {
			return i + 1
		}
	}
	return 0
}

func (b BloomLevel) Valid() bool { return b.Rank() > 0 }

func NormalizeBloom(raw string) BloomLevel {
	v := BloomLevel(strings.ToLower(strings.TrimSpace(raw)))
	switch v {
	case "analyse", "analysing":
		return BloomAnalyze
	case "remembering", "understanding", "applying", "analyzing", "evaluating", "creating":
		for _, lvl := range bloomOrder {
			if strings.HasPrefix(string(v), string(lvl)[:4]) {
				return lvl
			}
		}
	}
	return v
}

type NarrativePosition string

const (
	NarrativeHook        NarrativePosition = "hook"
	NarrativeFoundation  NarrativePosition = "foundation"
	NarrativeDevelopment NarrativePosition = "development"
	NarrativeApplication NarrativePosition = "application"
	NarrativeSynthesis   NarrativePosition = "synthesis"
)

var narrativeOrder = []NarrativePosition{
	NarrativeHook,
	NarrativeFoundation,
	NarrativeDevelopment,
	NarrativeApplication,
	NarrativeSynthesis,
}

func (n NarrativePosition) Rank() int {
	for i, pos := range narrativeOrder {
		if pos == n {
			return i + 1
		}
	}
	return 0
}

func (n NarrativePosition) Valid() bool { return n.Rank() > 0 }

func NormalizeNarrative(raw string) NarrativePosition {
	return NarrativePosition(strings.ToLower(strings.TrimSpace(raw)))
}

type StepGrammar struct {
	StepKey            string            `json:"step_key"`
	LearningObjectives []string          `json:"learning_objectives"`
	BloomLevel         BloomLevel        `json:"bloom_level"`
	NarrativePosition  NarrativePosition `json:"narrative_position"`
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type Issue struct {
	StepKey  string   `json:"step_key,omitempty"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type Report struct {
	Score  int     `json:"score"`
	Passed bool    `json:"passed"`
	Issues []Issue `json:"issues"`
}

func (r Report) Errors() int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Grammar is stored on the syllabus row once generated.
type Grammar struct {
	Steps       []StepGrammar `json:"steps,omitempty"`
	Report      *Report       `json:"report,omitempty"`
	Provider    string        `json:"provider,omitempty"`
	Model       string        `json:"model,omitempty"`
	GeneratedAt *time.Time    `json:"generated_at,omitempty"`
}

func (g Grammar) Empty() bool { return len(g.Steps) == 0 && g.Report == nil }
