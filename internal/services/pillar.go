package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/yungbote/hermes-backend/internal/ai"
	"github.com/yungbote/hermes-backend/internal/ai/prompts"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/domain/generation"
	pillarsmod "github.com/yungbote/hermes-backend/internal/modules/pillars"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type PillarService interface {
	Infer(ctx context.Context, titles []string, force bool) ([]curriculum.Pillar, error)
}

type pillarService struct {
	log     *logger.Logger
	router  Completer
	prompts *prompts.Catalog
	cache   GenerationCache
}

func NewPillarService(baseLog *logger.Logger, router Completer, promptCatalog *prompts.Catalog, cache GenerationCache) PillarService {
	return &pillarService{
		log:     baseLog.With("service", "PillarService"),
		router:  router,
		prompts: promptCatalog,
		cache:   cache,
	}
}

// Infer groups titles into prioritized pillars. The model's raw grouping is
// cached; reconciliation against the caller's titles runs on every call.
func (s *pillarService) Infer(ctx context.Context, titles []string, force bool) ([]curriculum.Pillar, error) {
	clean, err := pillarsmod.DedupeTitles(titles)
	if errors.Is(err, pillarsmod.ErrNoTitles) {
		return nil, apierr.BadRequest("missing_titles", "at least one title is required")
	}
	if err != nil {
		return nil, err
	}

	sorted := make([]string, len(clean))
	for i, t := range clean {
		sorted[i] = strings.ToLower(t)
	}
	sort.Strings(sorted)
	key := s.cache.Key(generation.KindPillars, sorted...)

	raw, _, _, err := cachedGenerate(ctx, s.log, s.cache, generation.KindPillars, key, force,
		func(ctx context.Context) ([]curriculum.Pillar, generation.Meta, error) {
			req, err := s.prompts.Build(prompts.Pillars, map[string]any{"Titles": clean})
			if err != nil {
				return nil, generation.Meta{}, err
			}
			resp, err := s.router.Complete(ctx, string(generation.KindPillars), req)
			if err != nil {
				return nil, generation.Meta{}, err
			}
			doc, err := ai.ExtractJSON(resp.Text)
			if err != nil {
				return nil, generation.Meta{}, apierr.Upstream("invalid_model_output", err)
			}
			parsed, err := pillarsmod.Parse(doc)
			if err != nil {
				return nil, generation.Meta{}, apierr.Upstream("invalid_model_output", err)
			}
			return parsed, generation.Meta{Provider: resp.Provider, Model: resp.Model}, nil
		})
	if err != nil {
		return nil, err
	}
	return pillarsmod.Assign(clean, raw), nil
}
