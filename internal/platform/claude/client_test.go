package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

func TestComplete_AgainstGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("X-Api-Key"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body["model"])
		assert.NotNil(t, body["system"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
		  "id": "msg_1",
		  "type": "message",
		  "role": "assistant",
		  "model": "claude-test",
		  "content": [{"type": "text", "text": "# Notes\n\nHello"}],
		  "stop_reason": "end_turn",
		  "usage": {"input_tokens": 11, "output_tokens": 22}
		}`))
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), config.ClaudeConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "claude-test"})
	require.NoError(t, err)

	res, err := c.Complete(context.Background(), Request{System: "tutor", User: "explain"})
	require.NoError(t, err)
	assert.Equal(t, "# Notes\n\nHello", res.Text)
	assert.Equal(t, "claude-test", res.Model)
	assert.Equal(t, 11, res.InputTokens)
	assert.Equal(t, 22, res.OutputTokens)
	assert.Equal(t, "end_turn", res.StopReason)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(logger.Nop(), config.ClaudeConfig{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
