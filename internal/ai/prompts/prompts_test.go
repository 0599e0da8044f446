package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogHasEveryPrompt(t *testing.T) {
	c := Default()
	assert.Equal(t, "v3", c.Version())
	for _, name := range []Name{Syllabus, Pillars, Grammar, Resources, Notes} {
		_, ok := c.prompts[name]
		assert.True(t, ok, "missing prompt %s", name)
	}
}

func TestBuildSyllabus(t *testing.T) {
	req, err := Default().Build(Syllabus, map[string]any{
		"Topic":          "Quantum Mechanics",
		"Level":          "beginner",
		"DisciplinePath": "Natural Sciences > Physics",
	})
	require.NoError(t, err)
	assert.True(t, req.JSON)
	assert.Equal(t, 6000, req.MaxTokens)
	assert.True(t, strings.HasPrefix(req.System, styleMarker))
	assert.Contains(t, req.System, "beginner learner")
	assert.Contains(t, req.User, "Topic: Quantum Mechanics")
	assert.Contains(t, req.User, "Discipline: Natural Sciences > Physics")
}

func TestBuildOmitsOptionalSections(t *testing.T) {
	req, err := Default().Build(Notes, struct {
		Topic, StepTitle, StepDescription string
	}{Topic: "Go", StepTitle: "Channels"})
	require.NoError(t, err)
	assert.False(t, req.JSON)
	assert.NotContains(t, req.User, "Step description")
	assert.Contains(t, req.User, "Step: Channels")
}

func TestBuildListsPillarTitles(t *testing.T) {
	req, err := Default().Build(Pillars, map[string]any{"Titles": []string{"Limits", "Derivatives"}})
	require.NoError(t, err)
	assert.Contains(t, req.User, "- Limits")
	assert.Contains(t, req.User, "- Derivatives")
}

func TestBuildUnknownPrompt(t *testing.T) {
	_, err := Default().Build(Name("missing"), nil)
	assert.Error(t, err)
}

func TestParseRejectsBadCatalog(t *testing.T) {
	_, err := Parse([]byte("prompts: {}"))
	assert.Error(t, err)

	_, err = Parse([]byte("version: v1\nprompts:\n  x:\n    system: \"{{.Broken\"\n    user: hi\n"))
	assert.Error(t, err)
}

func TestApplyStyleIsIdempotent(t *testing.T) {
	once := applyStyle("Do the thing.", true)
	assert.Equal(t, once, applyStyle(once, true))
}
