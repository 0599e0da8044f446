// Package grammar scores a course's step grammar: learning objectives,
// Bloom levels and narrative positions across the sequence of steps.
package grammar

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
)

const (
	DefaultPassScore = 70
	MaxObjectives    = 5

	penaltyMissing       = 15
	penaltyNoObjectives  = 10
	penaltyTooMany       = 3
	penaltyVerb          = 2
	penaltyVerbCap       = 10
	penaltyBloomInvalid  = 10
	penaltyNarrInvalid   = 5
	penaltyBloomRegress  = 5
	penaltyNarrBackwards = 3
	penaltyOpening       = 5
	penaltyClosing       = 5
	maxBloomRegression   = 2
)

const (
	CodeMissingGrammar     = "missing_grammar"
	CodeNoObjectives       = "no_objectives"
	CodeTooManyObjectives  = "too_many_objectives"
	CodeUnmeasurableVerb   = "unmeasurable_objective"
	CodeInvalidBloom       = "invalid_bloom_level"
	CodeInvalidNarrative   = "invalid_narrative_position"
	CodeBloomRegression    = "bloom_regression"
	CodeNarrativeBackwards = "narrative_backwards"
	CodeWeakOpening        = "weak_opening"
	CodeWeakClosing        = "weak_closing"
)

// Parse reads the model's per-step grammar from a bare array or an object
// with a "steps" array.
func Parse(raw string) ([]curriculum.StepGrammar, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("grammar: invalid json")
	}
	doc := gjson.Parse(raw)
	if doc.IsObject() {
		doc = doc.Get("steps")
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("grammar: missing steps array")
	}
	var out []curriculum.StepGrammar
	for _, s := range doc.Array() {
		g := curriculum.StepGrammar{
			StepKey:           pick(s, "step_key", "key").String(),
			BloomLevel:        curriculum.BloomLevel(pick(s, "bloom_level", "bloom").String()),
			NarrativePosition: curriculum.NarrativePosition(pick(s, "narrative_position", "narrative").String()),
		}
		for _, o := range pick(s, "learning_objectives", "objectives").Array() {
			g.LearningObjectives = append(g.LearningObjectives, o.String())
		}
		out = append(out, g)
	}
	return out, nil
}

func pick(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// Normalize keeps one entry per known step key, in step order, with
// trimmed objectives and canonical Bloom and narrative labels. Unknown
// keys are dropped; missing steps are left for Validate to report.
func Normalize(stepKeys []string, raw []curriculum.StepGrammar) []curriculum.StepGrammar {
	byKey := map[string]curriculum.StepGrammar{}
	for _, g := range raw {
		key := strings.TrimSpace(g.StepKey)
		if _, dup := byKey[key]; dup || key == "" {
			continue
		}
		var objectives []string
		for _, o := range g.LearningObjectives {
			if o = strings.TrimSpace(o); o != "" {
				objectives = append(objectives, o)
			}
		}
		byKey[key] = curriculum.StepGrammar{
			StepKey:            key,
			LearningObjectives: objectives,
			BloomLevel:         curriculum.NormalizeBloom(string(g.BloomLevel)),
			NarrativePosition:  curriculum.NormalizeNarrative(string(g.NarrativePosition)),
		}
	}
	out := make([]curriculum.StepGrammar, 0, len(stepKeys))
	for _, key := range stepKeys {
		if g, ok := byKey[key]; ok {
			out = append(out, g)
		}
	}
	return out
}

// Validate scores grammar against the ordered step keys with the default
// pass mark.
func Validate(stepKeys []string, steps []curriculum.StepGrammar) curriculum.Report {
	return ValidateWith(stepKeys, steps, DefaultPassScore)
}

// ValidateWith scores grammar starting from 100 and deducting per rule.
// The report passes when the score reaches passScore with no errors.
func ValidateWith(stepKeys []string, steps []curriculum.StepGrammar, passScore int) curriculum.Report {
	byKey := make(map[string]curriculum.StepGrammar, len(steps))
	for _, g := range steps {
		if _, dup := byKey[g.StepKey]; !dup {
			byKey[g.StepKey] = g
		}
	}

	v := &validator{score: 100}
	var prevBloom curriculum.BloomLevel
	var prevNarr curriculum.NarrativePosition

	for i, key := range stepKeys {
		g, ok := byKey[key]
		if !ok {
			v.add(key, CodeMissingGrammar, curriculum.SeverityError, penaltyMissing, "step has no grammar")
			continue
		}

		switch n := len(g.LearningObjectives); {
		case n == 0:
			v.add(key, CodeNoObjectives, curriculum.SeverityError, penaltyNoObjectives, "step has no learning objectives")
		case n > MaxObjectives:
			v.add(key, CodeTooManyObjectives, curriculum.SeverityWarning, penaltyTooMany,
				fmt.Sprintf("%d objectives; keep it to %d or fewer", n, MaxObjectives))
		}

		verbPenalty := 0
		for _, o := range g.LearningObjectives {
			if Measurable(o) {
				continue
			}
			cost := penaltyVerb
			if verbPenalty+cost > penaltyVerbCap {
				cost = penaltyVerbCap - verbPenalty
			}
			verbPenalty += cost
			v.add(key, CodeUnmeasurableVerb, curriculum.SeverityWarning, cost,
				fmt.Sprintf("objective %q does not start with a measurable verb", o))
		}

		if !g.BloomLevel.Valid() {
			v.add(key, CodeInvalidBloom, curriculum.SeverityError, penaltyBloomInvalid,
				fmt.Sprintf("unknown bloom level %q", g.BloomLevel))
		} else {
			if prevBloom.Valid() && prevBloom.Rank()-g.BloomLevel.Rank() > maxBloomRegression {
				v.add(key, CodeBloomRegression, curriculum.SeverityWarning, penaltyBloomRegress,
					fmt.Sprintf("bloom level drops from %s to %s", prevBloom, g.BloomLevel))
			}
			prevBloom = g.BloomLevel
		}

		if !g.NarrativePosition.Valid() {
			v.add(key, CodeInvalidNarrative, curriculum.SeverityError, penaltyNarrInvalid,
				fmt.Sprintf("unknown narrative position %q", g.NarrativePosition))
			continue
		}
		if prevNarr.Valid() && g.NarrativePosition.Rank() < prevNarr.Rank() {
			v.add(key, CodeNarrativeBackwards, curriculum.SeverityWarning, penaltyNarrBackwards,
				fmt.Sprintf("narrative moves back from %s to %s", prevNarr, g.NarrativePosition))
		}
		prevNarr = g.NarrativePosition

		if i == 0 && g.NarrativePosition != curriculum.NarrativeHook && g.NarrativePosition != curriculum.NarrativeFoundation {
			v.add(key, CodeWeakOpening, curriculum.SeverityWarning, penaltyOpening,
				"first step should be a hook or foundation")
		}
		if i == len(stepKeys)-1 && g.NarrativePosition != curriculum.NarrativeApplication && g.NarrativePosition != curriculum.NarrativeSynthesis {
			v.add(key, CodeWeakClosing, curriculum.SeverityWarning, penaltyClosing,
				"last step should be an application or synthesis")
		}
	}

	if v.score < 0 {
		v.score = 0
	}
	r := curriculum.Report{Score: v.score, Issues: v.issues}
	if r.Issues == nil {
		r.Issues = []curriculum.Issue{}
	}
	r.Passed = r.Score >= passScore && r.Errors() == 0
	return r
}

type validator struct {
	score  int
	issues []curriculum.Issue
}

func (v *validator) add(key, code string, sev curriculum.Severity, penalty int, msg string) {
	v.score -= penalty
	v.issues = append(v.issues, curriculum.Issue{StepKey: key, Code: code, Severity: sev, Message: msg})
}

// Measurable reports whether an objective opens with a measurable verb.
// A leading "to" or "be able to" is skipped.
func Measurable(objective string) bool {
	words := strings.FieldsFunc(strings.ToLower(objective), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for len(words) > 0 && (words[0] == "to" || words[0] == "be" || words[0] == "able") {
		words = words[1:]
	}
	if len(words) == 0 {
		return false
	}
	return measurableVerbs[words[0]]
}
