package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/hermes-backend/internal/ai"
	"github.com/yungbote/hermes-backend/internal/ai/aitest"
	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/data/repos/testutil"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/domain/generation"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
)

const syllabusJSON = "```json\n" + `{
  "summary": "Learn Go from scratch",
  "modules": [
    {"title": "Basics", "steps": [
      {"title": "Install the toolchain", "minutes": 20},
      {"title": "Hello world", "estimated_minutes": 1000}
    ]},
    {"title": "Concurrency", "lessons": ["Goroutines", ""]},
    {"title": "", "steps": []}
  ]
}` + "\n```"

func newSyllabusService(env *testEnv) SyllabusService {
	return NewSyllabusService(env.log,
		repos.NewSyllabusRepo(env.db, env.log),
		NewCatalogService(env.log, repos.NewDisciplineRepo(env.db, env.log)),
		env.router, env.prompts, env.cache)
}

func TestSyllabusGenerateCachesByTopicAndLevel(t *testing.T) {
	fake := aitest.Text("perplexity", syllabusJSON)
	env := newTestEnv(t, fake)
	svc := newSyllabusService(env)
	ctx := userCtx(uuid.New())

	first, err := svc.Generate(ctx, GenerateSyllabusInput{Topic: "  Go   programming ", Level: "beginner"})
	require.NoError(t, err)
	content := first.Content.Data()
	require.Len(t, content.Modules, 2)
	assert.Equal(t, "Go programming", first.Topic)
	assert.Equal(t, "perplexity", first.Provider)
	assert.Equal(t, "m1s1", content.Modules[0].Steps[0].Key)
	assert.Equal(t, 20, content.Modules[0].Steps[0].EstimatedMinutes)
	assert.Equal(t, 240, content.Modules[0].Steps[1].EstimatedMinutes)
	require.Len(t, content.Modules[1].Steps, 1)
	assert.Equal(t, "Goroutines", content.Modules[1].Steps[0].Title)

	second, err := svc.Generate(ctx, GenerateSyllabusInput{Topic: "go programming", Level: "BEGINNER"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.CacheKey, second.CacheKey)
	assert.Len(t, fake.Calls(), 1)

	_, err = svc.Generate(ctx, GenerateSyllabusInput{Topic: "go programming", Level: "advanced"})
	require.NoError(t, err)
	assert.Len(t, fake.Calls(), 2)

	_, err = svc.Generate(ctx, GenerateSyllabusInput{Topic: "go programming", Level: "beginner", Force: true})
	require.NoError(t, err)
	assert.Len(t, fake.Calls(), 3)
}

func TestSyllabusGenerateValidation(t *testing.T) {
	env := newTestEnv(t, aitest.Text("perplexity", syllabusJSON))
	svc := newSyllabusService(env)

	_, err := svc.Generate(context.Background(), GenerateSyllabusInput{Topic: "Go"})
	status, code := apierr.StatusOf(err, 0)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", code)

	ctx := userCtx(uuid.New())
	_, err = svc.Generate(ctx, GenerateSyllabusInput{Topic: "   "})
	_, code = apierr.StatusOf(err, 0)
	assert.Equal(t, "invalid_topic", code)

	_, err = svc.Generate(ctx, GenerateSyllabusInput{Topic: strings.Repeat("x", 201)})
	_, code = apierr.StatusOf(err, 0)
	assert.Equal(t, "invalid_topic", code)

	missing := uuid.New()
	_, err = svc.Generate(ctx, GenerateSyllabusInput{Topic: "Go", DisciplineID: &missing})
	status, _ = apierr.StatusOf(err, 0)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSyllabusGenerateBadModelOutput(t *testing.T) {
	env := newTestEnv(t, aitest.Text("perplexity", "I cannot help with that."))
	svc := newSyllabusService(env)

	_, err := svc.Generate(userCtx(uuid.New()), GenerateSyllabusInput{Topic: "Go"})
	status, code := apierr.StatusOf(err, 0)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "invalid_model_output", code)

	env = newTestEnv(t, aitest.Text("perplexity", `{"modules": [{"title": "Empty", "steps": []}]}`))
	svc = newSyllabusService(env)
	_, err = svc.Generate(userCtx(uuid.New()), GenerateSyllabusInput{Topic: "Go"})
	_, code = apierr.StatusOf(err, 0)
	assert.Equal(t, "empty_syllabus", code)
}

func TestSyllabusGetIsScopedToOwner(t *testing.T) {
	env := newTestEnv(t, aitest.Text("perplexity", syllabusJSON))
	svc := newSyllabusService(env)
	owner := userCtx(uuid.New())

	syl, err := svc.Generate(owner, GenerateSyllabusInput{Topic: "Go"})
	require.NoError(t, err)

	got, err := svc.Get(owner, syl.ID)
	require.NoError(t, err)
	assert.Equal(t, syl.ID, got.ID)

	_, err = svc.Get(userCtx(uuid.New()), syl.ID)
	status, code := apierr.StatusOf(err, 0)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "syllabus_not_found", code)

	list, err := svc.ListForUser(owner, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPillarInferAssignsEveryTitle(t *testing.T) {
	fake := aitest.Text("gemini", `{"pillars": [
	  {"name": "Foundations", "priority": "essential", "topics": ["Variables", "Types"]},
	  {"name": "Extras", "priority": "optional", "topics": ["types", "Generics"]}
	]}`)
	env := newTestEnv(t, fake)
	svc := NewPillarService(env.log, env.router, env.prompts, env.cache)
	ctx := userCtx(uuid.New())

	out, err := svc.Infer(ctx, []string{"Variables", "Types", "Generics", "Testing", "types"}, false)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "Foundations", out[0].Name)
	assert.Equal(t, curriculum.PriorityCore, out[0].Priority)
	assert.ElementsMatch(t, []string{"Variables", "Types"}, out[0].Topics)
	assert.Equal(t, []string{"Generics"}, out[1].Topics)
	assert.Equal(t, curriculum.AdditionalTopicsPillar, out[2].Name)
	assert.Equal(t, []string{"Testing"}, out[2].Topics)

	// Same titles in another order hit the cache.
	_, err = svc.Infer(ctx, []string{"Testing", "Generics", "Types", "Variables"}, false)
	require.NoError(t, err)
	assert.Len(t, fake.Calls(), 1)

	_, err = svc.Infer(ctx, []string{" ", ""}, false)
	_, code := apierr.StatusOf(err, 0)
	assert.Equal(t, "missing_titles", code)
}

func TestGrammarGenerateStoresReport(t *testing.T) {
	fake := aitest.Text("claude", `[
	  {"step_key": "m1s1", "learning_objectives": ["Define the core terms"], "bloom_level": "remember", "narrative_position": "hook"},
	  {"step_key": "m1s2", "learning_objectives": ["Explain how the parts interact"], "bloom_level": "understand", "narrative_position": "development"},
	  {"step_key": "m2s1", "learning_objectives": ["Build a small project"], "bloom_level": "create", "narrative_position": "synthesis"}
	]`)
	env := newTestEnv(t, fake)
	sylRepo := repos.NewSyllabusRepo(env.db, env.log)
	svc := NewGrammarService(env.log, newSyllabusService(env), sylRepo, env.router, env.prompts, env.cache, env.gen)

	userID := uuid.New()
	ctx := userCtx(userID)
	syl := testutil.SeedSyllabus(t, ctx, env.db, userID, "Go")

	g, err := svc.Generate(ctx, syl.ID, false)
	require.NoError(t, err)
	require.Len(t, g.Steps, 3)
	require.NotNil(t, g.Report)
	assert.Equal(t, "claude", g.Provider)
	assert.NotNil(t, g.Report.Issues)

	stored, err := sylRepo.GetByID(dbctx.Context{Ctx: ctx}, syl.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Grammar.Data().Steps, 3)

	_, err = svc.Generate(userCtx(uuid.New()), syl.ID, false)
	_, code := apierr.StatusOf(err, 0)
	assert.Equal(t, "syllabus_not_found", code)
}

func TestResourcesFindCuratesAndDedupes(t *testing.T) {
	fake := &aitest.Fake{
		ProviderName: "perplexity",
		Fn: func(ctx context.Context, req ai.Request) (*ai.Response, error) {
			return &ai.Response{
				Text: `{"readings": [
				  {"title": "Effective Go", "url": "https://go.dev/doc/effective_go?utm_source=x"},
				  {"title": "Effective Go (copy)", "url": "https://www.go.dev/doc/effective_go/"}
				],
				"moocs": [{"title": "Go course", "url": "https://example.com/course"}]}`,
				Citations: []string{"https://go.dev/doc/effective_go", "https://pkg.go.dev/fmt"},
			}, nil
		},
	}
	env := newTestEnv(t, fake)
	svc := NewResourceService(env.log, nil, env.router, env.prompts, env.cache)
	ctx := userCtx(uuid.New())

	set, err := svc.Find(ctx, FindResourcesInput{Topic: "Go", StepTitle: "Style"})
	require.NoError(t, err)
	readings := set.ByKind(curriculum.ResourceReading)
	require.Len(t, readings, 2)
	assert.Equal(t, "Effective Go", readings[0].Title)
	assert.Len(t, set.ByKind(curriculum.ResourceMOOC), 1)
	assert.Empty(t, set.ByKind(curriculum.ResourceVideo))

	_, err = svc.Find(ctx, FindResourcesInput{Topic: "go", StepTitle: "style"})
	require.NoError(t, err)
	assert.Len(t, fake.Calls(), 1)

	_, err = svc.Find(ctx, FindResourcesInput{Topic: "Go"})
	_, code := apierr.StatusOf(err, 0)
	assert.Equal(t, "invalid_resource_query", code)
}

func TestResourcesFindFailsWhenEverySourceFails(t *testing.T) {
	env := newTestEnv(t, aitest.Failing("perplexity", errors.New("boom")))
	svc := NewResourceService(env.log, nil, env.router, env.prompts, env.cache)

	_, err := svc.Find(userCtx(uuid.New()), FindResourcesInput{Topic: "Go", StepTitle: "Style"})
	status, code := apierr.StatusOf(err, 0)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "resources_unavailable", code)
}

func TestNotesGenerateRendersSanitizedHTML(t *testing.T) {
	md := "```markdown\n# Goroutines\n\nUse `go f()`.\n\n<script>alert(1)</script>\n\n| a | b |\n|---|---|\n| 1 | 2 |\n```"
	fake := aitest.Text("gemini", md)
	env := newTestEnv(t, fake)
	svc := NewNotesService(env.log, env.router, env.prompts, env.cache)
	ctx := userCtx(uuid.New())

	notes, err := svc.Generate(ctx, GenerateNotesInput{Topic: "Go", StepTitle: "Goroutines"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(notes.Markdown, "# Goroutines"))
	assert.Contains(t, notes.HTML, "<h1")
	assert.Contains(t, notes.HTML, "<table>")
	assert.NotContains(t, notes.HTML, "<script>")
	assert.Equal(t, "gemini", notes.Provider)

	_, err = svc.Generate(ctx, GenerateNotesInput{Topic: "Go", StepTitle: "Goroutines"})
	require.NoError(t, err)
	assert.Len(t, fake.Calls(), 1)

	cached, err := env.cache.Get(ctx, generation.KindNotes, env.cache.Key(generation.KindNotes, "Go", "Goroutines", ""))
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "gemini", cached.Provider)
}

func TestNotesGenerateEmpty(t *testing.T) {
	env := newTestEnv(t, aitest.Text("gemini", "```\n```"))
	svc := NewNotesService(env.log, env.router, env.prompts, env.cache)

	_, err := svc.Generate(userCtx(uuid.New()), GenerateNotesInput{Topic: "Go", StepTitle: "Maps"})
	_, code := apierr.StatusOf(err, 0)
	assert.Equal(t, "empty_notes", code)
}

func TestNotesGenerateKeepsProseAroundCodeBlocks(t *testing.T) {
	md := "# Closures\n\nA closure captures variables.\n\n```go\nf := func() int { return x }\n```\n\nUse them carefully."
	env := newTestEnv(t, aitest.Text("gemini", md))
	svc := NewNotesService(env.log, env.router, env.prompts, env.cache)

	notes, err := svc.Generate(userCtx(uuid.New()), GenerateNotesInput{Topic: "Go", StepTitle: "Closures"})
	require.NoError(t, err)
	assert.Equal(t, md, notes.Markdown)
	assert.Contains(t, notes.HTML, "<h1")
	assert.Contains(t, notes.HTML, "A closure captures variables.")
	assert.Contains(t, notes.HTML, "<pre>")
	assert.Contains(t, notes.HTML, "Use them carefully.")
}
