package ai

import (
	"context"

	"github.com/yungbote/hermes-backend/internal/platform/claude"
	"github.com/yungbote/hermes-backend/internal/platform/gemini"
	"github.com/yungbote/hermes-backend/internal/platform/perplexity"
)

const (
	ProviderPerplexity = "perplexity"
	ProviderGemini     = "gemini"
	ProviderClaude     = "claude"
)

type Request struct {
	System      string
	User        string
	JSON        bool
	MaxTokens   int
	Temperature float64
}

type Response struct {
	Text         string
	Citations    []string
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Provider is one hosted LLM backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

type perplexityProvider struct{ c perplexity.Client }

func NewPerplexityProvider(c perplexity.Client) Provider { return &perplexityProvider{c: c} }

func (p *perplexityProvider) Name() string { return ProviderPerplexity }

func (p *perplexityProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	res, err := p.c.Chat(ctx, perplexity.ChatRequest{
		System:      req.System,
		User:        req.User,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return &Response{
		Text:         res.Text,
		Citations:    res.Citations,
		Provider:     ProviderPerplexity,
		Model:        res.Model,
		InputTokens:  res.PromptTokens,
		OutputTokens: res.CompletionTokens,
	}, nil
}

type geminiProvider struct{ c gemini.Client }

func NewGeminiProvider(c gemini.Client) Provider { return &geminiProvider{c: c} }

func (p *geminiProvider) Name() string { return ProviderGemini }

func (p *geminiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	res, err := p.c.Generate(ctx, gemini.Request{
		System:      req.System,
		User:        req.User,
		JSON:        req.JSON,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return &Response{
		Text:         res.Text,
		Provider:     ProviderGemini,
		Model:        res.Model,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
	}, nil
}

type claudeProvider struct{ c claude.Client }

func NewClaudeProvider(c claude.Client) Provider { return &claudeProvider{c: c} }

func (p *claudeProvider) Name() string { return ProviderClaude }

func (p *claudeProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	system := req.System
	if req.JSON {
		system += "\n\nRespond with JSON only. Do not wrap it in prose."
	}
	res, err := p.c.Complete(ctx, claude.Request{
		System:      system,
		User:        req.User,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return &Response{
		Text:         res.Text,
		Provider:     ProviderClaude,
		Model:        res.Model,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
	}, nil
}
