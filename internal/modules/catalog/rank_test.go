package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/hermes-backend/internal/domain/catalog"
)

func disc(description string, path ...string) *catalog.Discipline {
	d := catalog.FromPath(path, description)
	return &d
}

func TestScore(t *testing.T) {
	d := *disc("Study of matter and energy", "Natural Sciences", "Physics", "Quantum Physics")

	score, level, ok := Score(d, "physics")
	require.True(t, ok)
	assert.Equal(t, ScoreExact, score)
	assert.Equal(t, 2, level)

	score, level, ok = Score(d, "quantum")
	require.True(t, ok)
	assert.Equal(t, ScorePrefix, score)
	assert.Equal(t, 3, level)

	score, _, ok = Score(d, "science")
	require.True(t, ok)
	assert.Equal(t, ScoreSubstring, score)

	score, level, ok = Score(d, "energy")
	require.True(t, ok)
	assert.Equal(t, ScoreDescription, score)
	assert.Equal(t, 0, level)

	_, _, ok = Score(d, "biology")
	assert.False(t, ok)
	_, _, ok = Score(d, "  ")
	assert.False(t, ok)
}

func TestRankOrdersByScoreDepthThenPath(t *testing.T) {
	rows := []*catalog.Discipline{
		disc("", "Natural Sciences", "Physics", "Quantum Physics"),
		disc("", "Natural Sciences", "Physics"),
		disc("", "Natural Sciences", "Physics", "Astrophysics"),
		disc("", "Engineering", "Engineering Physics"),
		disc("topics in physics education", "Education"),
		disc("", "Arts"),
		nil,
	}

	hits := Rank(rows, "Physics", 0)
	require.Len(t, hits, 5)
	var got [][]string
	for _, h := range hits {
		got = append(got, h.Path)
	}
	assert.Equal(t, [][]string{
		{"Natural Sciences", "Physics"},
		{"Natural Sciences", "Physics", "Astrophysics"},
		{"Natural Sciences", "Physics", "Quantum Physics"},
		{"Engineering", "Engineering Physics"},
		{"Education"},
	}, got)
}

func TestRankAppliesLimit(t *testing.T) {
	rows := []*catalog.Discipline{disc("", "Math"), disc("", "Math", "Algebra"), disc("", "Math", "Geometry")}
	hits := Rank(rows, "math", 2)
	assert.Len(t, hits, 2)
	assert.Equal(t, []string{"Math"}, hits[0].Path)
}
