package ai_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/hermes-backend/internal/ai"
	"github.com/yungbote/hermes-backend/internal/ai/aitest"
	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/data/repos/testutil"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
	"github.com/yungbote/hermes-backend/internal/platform/ctxutil"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
)

func newRouter(t *testing.T, order string, failures uint32, providers ...ai.Provider) (*ai.Router, repos.AICallLogRepo) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	callLog := repos.NewAICallLogRepo(db, log)
	pcfg := config.ProvidersConfig{Order: map[string]string{"syllabus": order}}
	gcfg := config.GenerationConfig{
		BreakerFailures: failures,
		BreakerCooldown: time.Hour,
		RequestTimeout:  5 * time.Second,
	}
	return ai.NewRouter(log, providers, pcfg, gcfg, callLog), callLog
}

func TestRouter_FallsThroughToNextProvider(t *testing.T) {
	bad := aitest.Failing(ai.ProviderPerplexity, errors.New("503 from upstream"))
	good := aitest.Text(ai.ProviderGemini, `{"ok":true}`)
	router, callLog := newRouter(t, "perplexity,gemini", 5, bad, good)

	userID := uuid.New()
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
	resp, err := router.Complete(ctx, "syllabus", ai.Request{System: "sys", User: "user"})
	require.NoError(t, err)
	assert.Equal(t, ai.ProviderGemini, resp.Provider)
	assert.Len(t, bad.Calls(), 1)

	rows, err := callLog.ListRecent(dbctx.Context{Ctx: context.Background()}, "syllabus", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	byProvider := map[string]bool{}
	for _, row := range rows {
		byProvider[row.Provider] = row.Success
		require.NotNil(t, row.UserID)
		assert.Equal(t, userID, *row.UserID)
		assert.Equal(t, len("sys")+len("user"), row.PromptChars)
	}
	assert.False(t, byProvider[ai.ProviderPerplexity])
	assert.True(t, byProvider[ai.ProviderGemini])
}

func TestRouter_AllFailReturnsUpstreamWithLastError(t *testing.T) {
	last := errors.New("claude overloaded")
	router, _ := newRouter(t, "gemini,claude", 5,
		aitest.Failing(ai.ProviderGemini, errors.New("quota")),
		aitest.Failing(ai.ProviderClaude, last),
	)

	_, err := router.Complete(context.Background(), "syllabus", ai.Request{User: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.ErrUpstream)
	assert.ErrorIs(t, err, last)
	status, code := apierr.StatusOf(err, 500)
	assert.Equal(t, 502, status)
	assert.Equal(t, "generation_failed", code)
}

func TestRouter_NoConfiguredProvider(t *testing.T) {
	router, _ := newRouter(t, "perplexity", 5, aitest.Text(ai.ProviderGemini, "hi"))

	_, err := router.Complete(context.Background(), "syllabus", ai.Request{User: "x"})
	assert.ErrorIs(t, err, ai.ErrNoProvider)
	_, code := apierr.StatusOf(err, 500)
	assert.Equal(t, "no_provider", code)
}

func TestRouter_EmptyTextCountsAsFailure(t *testing.T) {
	router, _ := newRouter(t, "gemini,claude", 5,
		aitest.Text(ai.ProviderGemini, ""),
		aitest.Text(ai.ProviderClaude, "answer"),
	)

	resp, err := router.Complete(context.Background(), "syllabus", ai.Request{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, "answer", resp.Text)
	assert.Equal(t, ai.ProviderClaude, resp.Provider)
}

func TestRouter_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	flaky := aitest.Failing(ai.ProviderPerplexity, errors.New("boom"))
	backup := aitest.Text(ai.ProviderGemini, "fine")
	router, _ := newRouter(t, "perplexity,gemini", 2, flaky, backup)

	for i := 0; i < 4; i++ {
		_, err := router.Complete(context.Background(), "syllabus", ai.Request{User: "x"})
		require.NoError(t, err)
	}
	// Two failures trip the breaker; later requests skip the provider.
	assert.Len(t, flaky.Calls(), 2)
	assert.Len(t, backup.Calls(), 4)
}

func TestRouter_CanceledContextStops(t *testing.T) {
	p := aitest.Text(ai.ProviderGemini, "never")
	router, _ := newRouter(t, "gemini", 5, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := router.Complete(ctx, "syllabus", ai.Request{User: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.Calls())
}

func TestRouter_ChainDedupesAndSkipsUnknown(t *testing.T) {
	router, _ := newRouter(t, "claude, gemini ,claude,openai", 5,
		aitest.Text(ai.ProviderGemini, "a"),
		aitest.Text(ai.ProviderClaude, "b"),
	)
	chain := router.Chain("syllabus")
	require.Len(t, chain, 2)
	assert.Equal(t, ai.ProviderClaude, chain[0].Name())
	assert.Equal(t, ai.ProviderGemini, chain[1].Name())
}
