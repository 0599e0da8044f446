package perplexity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/platform/httpx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

const okBody = `{
  "model": "sonar-pro",
  "choices": [{"message": {"role": "assistant", "content": "{\"modules\": []}"}}],
  "citations": ["https://a.example/x", "https://b.example/y"],
  "search_results": [{"title": "A", "url": "https://a.example/x"}, {"title": "C", "url": "https://c.example/z"}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 34}
}`

func newTestClient(t *testing.T, srv *httptest.Server, retries int) Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), config.PerplexityConfig{
		APIKey:     "pplx-test",
		BaseURL:    srv.URL,
		Model:      "sonar-pro",
		MaxRetries: retries,
	})
	require.NoError(t, err)
	return c
}

func TestChat_ParsesCompletionAndCitations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer pplx-test", r.Header.Get("Authorization"))
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "sonar-pro", body.Model)
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv, 0).Chat(context.Background(), ChatRequest{System: "be terse", User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, `{"modules": []}`, res.Text)
	assert.Equal(t, []string{"https://a.example/x", "https://b.example/y", "https://c.example/z"}, res.Citations)
	assert.Equal(t, 12, res.PromptTokens)
	assert.Equal(t, 34, res.CompletionTokens)
}

func TestChat_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 2).Chat(context.Background(), ChatRequest{User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestChat_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 3).Chat(context.Background(), ChatRequest{User: "hi"})
	require.Error(t, err)
	var se *httpx.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(logger.Nop(), config.PerplexityConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
