package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/platform/httpx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

const providerName = "perplexity"

var ErrMissingAPIKey = errors.New("missing PERPLEXITY_API_KEY")

type ChatRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

type ChatResult struct {
	Text             string
	Citations        []string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Client talks to the Perplexity chat completions API. Answers are search
// grounded and carry the URLs the model cited.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResult, error)
	Model() string
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg config.PerplexityConfig) (Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.perplexity.ai"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "sonar-pro"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &client{
		log:        log.With("client", "PerplexityClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *client) Model() string { return c.model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

func (c *client) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	body := chatRequest{Model: c.model}
	if s := strings.TrimSpace(req.System); s != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: s})
	}
	body.Messages = append(body.Messages, message{Role: "user", Content: req.User})
	if req.MaxTokens > 0 {
		body.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		t := req.Temperature
		body.Temperature = &t
	}

	var raw []byte
	attempt := 0
	err := httpx.Retry(ctx, c.maxRetries, func() error {
		attempt++
		out, err := c.doOnce(ctx, "/chat/completions", body)
		if err != nil {
			if httpx.IsRetryableError(err) {
				c.log.Warn("Perplexity request retrying", "attempt", attempt, "max_retries", c.maxRetries, "error", err.Error())
			}
			return err
		}
		raw = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parseChat(raw)
}

func (c *client) doOnce(ctx context.Context, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpx.StatusError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			RetryAfter: httpx.RetryAfterDuration(resp, 0, 10*time.Second),
		}
	}
	return raw, nil
}

func parseChat(raw []byte) (*ChatResult, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("perplexity decode error: invalid json body")
	}
	res := gjson.ParseBytes(raw)
	text := res.Get("choices.0.message.content").String()
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("perplexity: empty completion")
	}

	seen := map[string]bool{}
	var citations []string
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		citations = append(citations, u)
	}
	res.Get("citations").ForEach(func(_, v gjson.Result) bool {
		add(v.String())
		return true
	})
	res.Get("search_results.#.url").ForEach(func(_, v gjson.Result) bool {
		add(v.String())
		return true
	})

	return &ChatResult{
		Text:             text,
		Citations:        citations,
		Model:            res.Get("model").String(),
		PromptTokens:     int(res.Get("usage.prompt_tokens").Int()),
		CompletionTokens: int(res.Get("usage.completion_tokens").Int()),
	}, nil
}
