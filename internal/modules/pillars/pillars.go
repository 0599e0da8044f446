// Package pillars turns a model's grouping of topics into a partition of
// the caller's titles.
package pillars

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
)

var ErrNoTitles = errors.New("at least one title is required")

// DedupeTitles trims titles and removes case-insensitive duplicates,
// keeping the first spelling.
func DedupeTitles(titles []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, t := range titles {
		t = strings.TrimSpace(t)
		k := strings.ToLower(t)
		if t == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, ErrNoTitles
	}
	return out, nil
}

// Parse reads the model's pillar list. Both a bare array and an object
// with a "pillars" array are accepted.
func Parse(raw string) ([]curriculum.Pillar, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("pillars: invalid json")
	}
	doc := gjson.Parse(raw)
	if doc.IsObject() {
		doc = doc.Get("pillars")
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("pillars: missing pillars array")
	}
	var out []curriculum.Pillar
	for _, p := range doc.Array() {
		pillar := curriculum.Pillar{
			Name:      strings.TrimSpace(p.Get("name").String()),
			Priority:  curriculum.PillarPriority(p.Get("priority").String()),
			Rationale: strings.TrimSpace(p.Get("rationale").String()),
		}
		topics := p.Get("topics")
		if !topics.Exists() {
			topics = p.Get("titles")
		}
		for _, t := range topics.Array() {
			pillar.Topics = append(pillar.Topics, t.String())
		}
		out = append(out, pillar)
	}
	return out, nil
}

// Assign reconciles pillars with titles so that every title lands in
// exactly one pillar:
//   - priorities are normalized;
//   - topics are matched to titles case-insensitively, unknown ones dropped;
//   - a title claimed twice stays with the higher priority pillar, the
//     earlier pillar on ties;
//   - unclaimed titles go to the "Additional Topics" pillar, which is
//     created unless the model already named one;
//   - empty pillars are dropped and the rest sorted by priority.
func Assign(titles []string, raw []curriculum.Pillar) []curriculum.Pillar {
	canonical := map[string]string{}
	for _, t := range titles {
		canonical[strings.ToLower(strings.TrimSpace(t))] = t
	}

	pillars := make([]curriculum.Pillar, 0, len(raw)+1)
	for i, p := range raw {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = fmt.Sprintf("Pillar %d", i+1)
		}
		pillars = append(pillars, curriculum.Pillar{
			Name:      name,
			Priority:  curriculum.NormalizePriority(string(p.Priority)),
			Rationale: strings.TrimSpace(p.Rationale),
			Topics:    p.Topics,
		})
	}

	// owner maps a title to the index of the pillar that keeps it.
	owner := map[string]int{}
	for i, p := range pillars {
		for _, topic := range p.Topics {
			title, ok := canonical[strings.ToLower(strings.TrimSpace(topic))]
			if !ok {
				continue
			}
			cur, claimed := owner[title]
			if !claimed || p.Priority.Weight() < pillars[cur].Priority.Weight() {
				owner[title] = i
			}
		}
	}

	for i := range pillars {
		pillars[i].Topics = nil
	}
	var unclaimed []string
	for _, title := range titles {
		if i, ok := owner[title]; ok {
			pillars[i].Topics = append(pillars[i].Topics, title)
			continue
		}
		unclaimed = append(unclaimed, title)
	}
	if len(unclaimed) > 0 {
		extra := -1
		for i, p := range pillars {
			if strings.EqualFold(p.Name, curriculum.AdditionalTopicsPillar) {
				extra = i
				break
			}
		}
		if extra >= 0 {
			pillars[extra].Topics = append(pillars[extra].Topics, unclaimed...)
			unclaimed = nil
		}
	}
	if len(unclaimed) > 0 {
		pillars = append(pillars, curriculum.Pillar{
			Name:      curriculum.AdditionalTopicsPillar,
			Priority:  curriculum.PriorityNiceToHave,
			Topics:    unclaimed,
			Rationale: "Topics not grouped under another pillar.",
		})
	}

	out := pillars[:0]
	for _, p := range pillars {
		if len(p.Topics) > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Weight() < out[j].Priority.Weight()
	})
	return out
}
