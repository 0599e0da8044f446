// Package syllabus parses and normalizes model-generated curricula.
package syllabus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
)

const (
	MaxModules        = 12
	MaxStepsPerModule = 10
	DefaultMinutes    = 30
	MinMinutes        = 5
	MaxMinutes        = 240
	MaxTopicRunes     = 200
)

var ErrEmpty = errors.New("empty syllabus")

// Parse reads a syllabus document. It accepts either an object with a
// "modules" array or a bare array of modules, and tolerates the field
// aliases models commonly use.
func Parse(raw string) (curriculum.SyllabusContent, error) {
	if !gjson.Valid(raw) {
		return curriculum.SyllabusContent{}, fmt.Errorf("syllabus: invalid json")
	}
	doc := gjson.Parse(raw)
	modules := doc
	var out curriculum.SyllabusContent
	if doc.IsObject() {
		out.Summary = first(doc, "summary", "overview", "description").String()
		modules = first(doc, "modules", "units", "sections")
		for _, c := range doc.Get("citations").Array() {
			out.Citations = append(out.Citations, c.String())
		}
	}
	if !modules.IsArray() {
		return curriculum.SyllabusContent{}, fmt.Errorf("syllabus: missing modules array")
	}
	for _, m := range modules.Array() {
		mod := curriculum.Module{
			Title:       first(m, "title", "name").String(),
			Description: first(m, "description", "summary").String(),
		}
		for _, s := range first(m, "steps", "lessons", "topics").Array() {
			if s.Type == gjson.String {
				mod.Steps = append(mod.Steps, curriculum.Step{Title: s.String()})
				continue
			}
			mod.Steps = append(mod.Steps, curriculum.Step{
				Title:            first(s, "title", "name").String(),
				Description:      first(s, "description", "summary").String(),
				EstimatedMinutes: int(first(s, "estimated_minutes", "minutes", "duration_minutes").Int()),
			})
		}
		out.Modules = append(out.Modules, mod)
	}
	return out, nil
}

func first(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// Normalize trims text, drops empty steps and modules, caps sizes, assigns
// step keys m{i}s{j} and clamps durations. It returns ErrEmpty when no
// step survives.
func Normalize(in curriculum.SyllabusContent) (curriculum.SyllabusContent, error) {
	out := curriculum.SyllabusContent{
		Summary:   strings.TrimSpace(in.Summary),
		Citations: dedupeStrings(in.Citations),
	}
	for _, m := range in.Modules {
		if len(out.Modules) == MaxModules {
			break
		}
		mi := len(out.Modules) + 1
		mod := curriculum.Module{
			Title:       strings.TrimSpace(m.Title),
			Description: strings.TrimSpace(m.Description),
		}
		for _, s := range m.Steps {
			title := strings.TrimSpace(s.Title)
			if title == "" {
				continue
			}
			if len(mod.Steps) == MaxStepsPerModule {
				break
			}
			mod.Steps = append(mod.Steps, curriculum.Step{
				Key:              fmt.Sprintf("m%ds%d", mi, len(mod.Steps)+1),
				Title:            title,
				Description:      strings.TrimSpace(s.Description),
				EstimatedMinutes: clampMinutes(s.EstimatedMinutes),
			})
		}
		if len(mod.Steps) == 0 {
			continue
		}
		if mod.Title == "" {
			mod.Title = fmt.Sprintf("Module %d", mi)
		}
		out.Modules = append(out.Modules, mod)
	}
	if len(out.Modules) == 0 {
		return curriculum.SyllabusContent{}, ErrEmpty
	}
	return out, nil
}

func clampMinutes(m int) int {
	switch {
	case m <= 0:
		return DefaultMinutes
	case m < MinMinutes:
		return MinMinutes
	case m > MaxMinutes:
		return MaxMinutes
	default:
		return m
	}
}

func dedupeStrings(in []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// MergeCitations appends provider citations not already present.
func MergeCitations(content curriculum.SyllabusContent, extra []string) curriculum.SyllabusContent {
	content.Citations = dedupeStrings(append(append([]string{}, content.Citations...), extra...))
	return content
}
