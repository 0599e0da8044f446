// Package catalog ranks discipline search candidates.
package catalog

import (
	"sort"
	"strings"

	"github.com/yungbote/hermes-backend/internal/domain/catalog"
)

const (
	ScoreExact       = 0
	ScorePrefix      = 1
	ScoreSubstring   = 2
	ScoreDescription = 3
)

// Score reports how well query matches d and the 1-based level that
// matched best. MatchLevel is 0 for description-only matches, and ok is
// false when nothing matches.
func Score(d catalog.Discipline, query string) (score, matchLevel int, ok bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0, 0, false
	}
	score = ScoreDescription + 1
	for i, lv := range d.Path() {
		v := strings.ToLower(lv)
		s := -1
		switch {
		case v == q:
			s = ScoreExact
		case strings.HasPrefix(v, q):
			s = ScorePrefix
		case strings.Contains(v, q):
			s = ScoreSubstring
		}
		if s >= 0 && s < score {
			score, matchLevel = s, i+1
		}
	}
	if score > ScoreDescription && strings.Contains(strings.ToLower(d.Description), q) {
		score = ScoreDescription
	}
	if score > ScoreDescription {
		return 0, 0, false
	}
	return score, matchLevel, true
}

// Rank scores candidates and orders them by score, then depth ascending,
// then path alphabetically. Non-matching rows are dropped and the result
// is capped at limit.
func Rank(rows []*catalog.Discipline, query string, limit int) []catalog.SearchHit {
	hits := make([]catalog.SearchHit, 0, len(rows))
	for _, d := range rows {
		if d == nil {
			continue
		}
		score, level, ok := Score(*d, query)
		if !ok {
			continue
		}
		hits = append(hits, catalog.SearchHit{
			Discipline: *d,
			Path:       d.Path(),
			Score:      score,
			MatchLevel: level,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if len(a.Path) != len(b.Path) {
			return len(a.Path) < len(b.Path)
		}
		return pathKey(a.Path) < pathKey(b.Path)
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func pathKey(p []string) string {
	return strings.ToLower(strings.Join(p, "\x00"))
}
