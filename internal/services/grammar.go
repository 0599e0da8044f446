package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/hermes-backend/internal/ai"
	"github.com/yungbote/hermes-backend/internal/ai/prompts"
	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/domain/generation"
	grammarmod "github.com/yungbote/hermes-backend/internal/modules/grammar"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type GrammarService interface {
	Generate(ctx context.Context, syllabusID uuid.UUID, force bool) (*curriculum.Grammar, error)
}

type grammarService struct {
	log       *logger.Logger
	syllabi   SyllabusService
	repo      repos.SyllabusRepo
	router    Completer
	prompts   *prompts.Catalog
	cache     GenerationCache
	passScore int
}

func NewGrammarService(
	baseLog *logger.Logger,
	syllabi SyllabusService,
	repo repos.SyllabusRepo,
	router Completer,
	promptCatalog *prompts.Catalog,
	cache GenerationCache,
	cfg config.GenerationConfig,
) GrammarService {
	pass := cfg.GrammarPassScore
	if pass <= 0 {
		pass = grammarmod.DefaultPassScore
	}
	return &grammarService{
		log:       baseLog.With("service", "GrammarService"),
		syllabi:   syllabi,
		repo:      repo,
		router:    router,
		prompts:   promptCatalog,
		cache:     cache,
		passScore: pass,
	}
}

type grammarPrompt struct {
	Topic string
	Steps []curriculum.StepRef
}

type cachedGrammar struct {
	Steps []curriculum.StepGrammar `json:"steps"`
}

// Generate annotates every step of a syllabus, scores the result and
// stores both on the syllabus row.
func (s *grammarService) Generate(ctx context.Context, syllabusID uuid.UUID, force bool) (*curriculum.Grammar, error) {
	syl, err := s.syllabi.Get(ctx, syllabusID)
	if err != nil {
		return nil, err
	}
	content := syl.Content.Data()
	refs := content.Steps()
	if len(refs) == 0 {
		return nil, apierr.BadRequest("empty_syllabus", "syllabus has no steps")
	}
	keys := make([]string, 0, len(refs))
	parts := []string{syl.Topic}
	for _, r := range refs {
		keys = append(keys, r.Key)
		parts = append(parts, r.Key+"="+r.Title)
	}
	key := s.cache.Key(generation.KindGrammar, parts...)

	cached, entry, _, err := cachedGenerate(ctx, s.log, s.cache, generation.KindGrammar, key, force,
		func(ctx context.Context) (cachedGrammar, generation.Meta, error) {
			req, err := s.prompts.Build(prompts.Grammar, grammarPrompt{Topic: syl.Topic, Steps: refs})
			if err != nil {
				return cachedGrammar{}, generation.Meta{}, err
			}
			resp, err := s.router.Complete(ctx, string(generation.KindGrammar), req)
			if err != nil {
				return cachedGrammar{}, generation.Meta{}, err
			}
			doc, err := ai.ExtractJSON(resp.Text)
			if err != nil {
				return cachedGrammar{}, generation.Meta{}, apierr.Upstream("invalid_model_output", err)
			}
			parsed, err := grammarmod.Parse(doc)
			if err != nil {
				return cachedGrammar{}, generation.Meta{}, apierr.Upstream("invalid_model_output", err)
			}
			return cachedGrammar{Steps: grammarmod.Normalize(keys, parsed)},
				generation.Meta{Provider: resp.Provider, Model: resp.Model}, nil
		})
	if err != nil {
		return nil, err
	}

	report := grammarmod.ValidateWith(keys, cached.Steps, s.passScore)
	now := time.Now().UTC()
	g := curriculum.Grammar{
		Steps:       cached.Steps,
		Report:      &report,
		Provider:    entry.Provider,
		Model:       entry.Model,
		GeneratedAt: &now,
	}
	if err := s.repo.UpdateGrammar(dbctx.Context{Ctx: ctx}, syl.ID, g); err != nil {
		return nil, fmt.Errorf("save grammar: %w", err)
	}
	s.log.Info("course grammar scored", "syllabus_id", syl.ID, "score", report.Score, "passed", report.Passed)
	return &g, nil
}
