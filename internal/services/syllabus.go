package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/hermes-backend/internal/ai"
	"github.com/yungbote/hermes-backend/internal/ai/prompts"
	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/domain/generation"
	syllabusmod "github.com/yungbote/hermes-backend/internal/modules/syllabus"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
	"github.com/yungbote/hermes-backend/internal/platform/ctxutil"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type GenerateSyllabusInput struct {
	Topic        string
	DisciplineID *uuid.UUID
	Level        string
	Force        bool
}

type SyllabusService interface {
	Generate(ctx context.Context, in GenerateSyllabusInput) (*curriculum.Syllabus, error)
	Get(ctx context.Context, id uuid.UUID) (*curriculum.Syllabus, error)
	ListForUser(ctx context.Context, limit int) ([]*curriculum.Syllabus, error)
}

type syllabusService struct {
	log     *logger.Logger
	repo    repos.SyllabusRepo
	catalog CatalogService
	router  Completer
	prompts *prompts.Catalog
	cache   GenerationCache
}

// Completer is the slice of the AI router the generation services use.
type Completer interface {
	Complete(ctx context.Context, kind string, req ai.Request) (*ai.Response, error)
}

func NewSyllabusService(
	baseLog *logger.Logger,
	repo repos.SyllabusRepo,
	catalog CatalogService,
	router Completer,
	promptCatalog *prompts.Catalog,
	cache GenerationCache,
) SyllabusService {
	return &syllabusService{
		log:     baseLog.With("service", "SyllabusService"),
		repo:    repo,
		catalog: catalog,
		router:  router,
		prompts: promptCatalog,
		cache:   cache,
	}
}

func requireUser(ctx context.Context) (uuid.UUID, error) {
	uid := ctxutil.UserID(ctx)
	if uid == uuid.Nil {
		return uuid.Nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	return uid, nil
}

type syllabusPrompt struct {
	Topic          string
	Level          curriculum.Level
	DisciplinePath string
}

func (s *syllabusService) Generate(ctx context.Context, in GenerateSyllabusInput) (*curriculum.Syllabus, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	topic := strings.Join(strings.Fields(in.Topic), " ")
	if topic == "" {
		return nil, apierr.BadRequest("invalid_topic", "topic is required")
	}
	if utf8.RuneCountInString(topic) > syllabusmod.MaxTopicRunes {
		return nil, apierr.BadRequest("invalid_topic", "topic must be at most %d characters", syllabusmod.MaxTopicRunes)
	}
	level := curriculum.ParseLevel(in.Level)

	var disciplinePath []string
	disciplineKey := ""
	if in.DisciplineID != nil && *in.DisciplineID != uuid.Nil {
		disciplinePath, err = s.catalog.PathFor(ctx, *in.DisciplineID)
		if err != nil {
			return nil, err
		}
		disciplineKey = in.DisciplineID.String()
	}

	key := s.cache.Key(generation.KindSyllabus, topic, string(level), disciplineKey)
	content, entry, hit, err := cachedGenerate(ctx, s.log, s.cache, generation.KindSyllabus, key, in.Force,
		func(ctx context.Context) (curriculum.SyllabusContent, generation.Meta, error) {
			return s.generate(ctx, syllabusPrompt{
				Topic:          topic,
				Level:          level,
				DisciplinePath: strings.Join(disciplinePath, " > "),
			})
		})
	if err != nil {
		return nil, err
	}

	row := &curriculum.Syllabus{
		UserID:       userID,
		Topic:        topic,
		DisciplineID: in.DisciplineID,
		Level:        level,
		Content:      datatypes.NewJSONType(content),
		Grammar:      datatypes.NewJSONType(curriculum.Grammar{}),
		CacheKey:     key,
		Provider:     entry.Provider,
		Model:        entry.Model,
	}
	if row.DisciplineID != nil && *row.DisciplineID == uuid.Nil {
		row.DisciplineID = nil
	}
	created, err := s.repo.Create(dbctx.Context{Ctx: ctx}, row)
	if err != nil {
		return nil, fmt.Errorf("save syllabus: %w", err)
	}
	s.log.Info("syllabus ready", "syllabus_id", created.ID, "cached", hit, "provider", entry.Provider, "modules", len(content.Modules))
	return created, nil
}

func (s *syllabusService) generate(ctx context.Context, in syllabusPrompt) (curriculum.SyllabusContent, generation.Meta, error) {
	var zero curriculum.SyllabusContent
	req, err := s.prompts.Build(prompts.Syllabus, in)
	if err != nil {
		return zero, generation.Meta{}, err
	}
	resp, err := s.router.Complete(ctx, string(generation.KindSyllabus), req)
	if err != nil {
		return zero, generation.Meta{}, err
	}
	raw, err := ai.ExtractJSON(resp.Text)
	if err != nil {
		return zero, generation.Meta{}, apierr.Upstream("invalid_model_output", err)
	}
	parsed, err := syllabusmod.Parse(raw)
	if err != nil {
		return zero, generation.Meta{}, apierr.Upstream("invalid_model_output", err)
	}
	content, err := syllabusmod.Normalize(syllabusmod.MergeCitations(parsed, resp.Citations))
	if errors.Is(err, syllabusmod.ErrEmpty) {
		return zero, generation.Meta{}, apierr.Upstream("empty_syllabus", err)
	}
	if err != nil {
		return zero, generation.Meta{}, err
	}
	return content, generation.Meta{Provider: resp.Provider, Model: resp.Model}, nil
}

// Get loads a syllabus owned by the caller.
func (s *syllabusService) Get(ctx context.Context, id uuid.UUID) (*curriculum.Syllabus, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	row, err := s.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load syllabus: %w", err)
	}
	if row == nil || row.UserID != userID {
		return nil, apierr.NotFound("syllabus_not_found", "syllabus")
	}
	return row, nil
}

func (s *syllabusService) ListForUser(ctx context.Context, limit int) ([]*curriculum.Syllabus, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit)
}
