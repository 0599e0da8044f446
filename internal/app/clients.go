package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/hermes-backend/internal/ai"
	redisclient "github.com/yungbote/hermes-backend/internal/clients/redis"
	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/platform/claude"
	"github.com/yungbote/hermes-backend/internal/platform/gemini"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
	"github.com/yungbote/hermes-backend/internal/platform/perplexity"
	"github.com/yungbote/hermes-backend/internal/platform/youtube"
)

// Clients holds external integrations. Every one of them is optional: a
// missing API key leaves the field nil and the dependent feature degrades.
type Clients struct {
	Redis     redisclient.Cache
	YouTube   youtube.Client
	Providers []ai.Provider
}

func wireClients(ctx context.Context, log *logger.Logger, cfg *config.Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		c, err := redisclient.NewCache(log, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis cache: %w", err)
		}
		out.Redis = c
	} else {
		log.Warn("REDIS_ADDR not set; generation cache is database-only")
	}

	// LLM providers
	if c, err := perplexity.NewClient(log, cfg.Providers.Perplexity); err == nil {
		out.Providers = append(out.Providers, ai.NewPerplexityProvider(c))
	} else if !errors.Is(err, perplexity.ErrMissingAPIKey) {
		return Clients{}, fmt.Errorf("init perplexity client: %w", err)
	}
	if c, err := gemini.NewClient(ctx, log, cfg.Providers.Gemini); err == nil {
		out.Providers = append(out.Providers, ai.NewGeminiProvider(c))
	} else if !errors.Is(err, gemini.ErrMissingAPIKey) {
		return Clients{}, fmt.Errorf("init gemini client: %w", err)
	}
	if c, err := claude.NewClient(log, cfg.Providers.Claude); err == nil {
		out.Providers = append(out.Providers, ai.NewClaudeProvider(c))
	} else if !errors.Is(err, claude.ErrMissingAPIKey) {
		return Clients{}, fmt.Errorf("init claude client: %w", err)
	}
	if len(out.Providers) == 0 {
		log.Warn("No LLM provider configured; generation endpoints will fail")
	}

	// YouTube
	if c, err := youtube.NewClient(ctx, log, cfg.Providers.YouTube); err == nil {
		out.YouTube = c
	} else if errors.Is(err, youtube.ErrMissingAPIKey) {
		log.Warn("YOUTUBE_API_KEY not set; resources will not include videos")
	} else {
		return Clients{}, fmt.Errorf("init youtube client: %w", err)
	}

	return out, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
