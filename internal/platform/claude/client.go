package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

var ErrMissingAPIKey = errors.New("missing CLAUDE_API_KEY")

const defaultMaxTokens = 4096

type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

type Result struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	StopReason   string
}

type Client interface {
	Complete(ctx context.Context, req Request) (*Result, error)
	Model() string
}

type client struct {
	log   *logger.Logger
	model string
	api   anthropic.Client
}

// NewClient builds a Messages API client. BaseURL points it at a gateway
// instead of the public endpoint.
func NewClient(log *logger.Logger, cfg config.ClaudeConfig) (Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(2),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	return &client{
		log:   log.With("client", "ClaudeClient"),
		model: model,
		api:   anthropic.NewClient(opts...),
	}, nil
}

func (c *client) Model() string { return c.model }

func (c *client) Complete(ctx context.Context, req Request) (*Result, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if s := strings.TrimSpace(req.System); s != "" {
		params.System = []anthropic.TextBlockParam{{Text: s}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("claude messages: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return nil, fmt.Errorf("claude: empty response (stop_reason=%q)", msg.StopReason)
	}
	return &Result{
		Text:         text,
		Model:        string(msg.Model),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
		StopReason:   string(msg.StopReason),
	}, nil
}
