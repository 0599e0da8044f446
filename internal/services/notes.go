package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/yungbote/hermes-backend/internal/ai"
	"github.com/yungbote/hermes-backend/internal/ai/prompts"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/domain/generation"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type GenerateNotesInput struct {
	Topic           string
	StepTitle       string
	StepDescription string
	Force           bool
}

type NotesService interface {
	Generate(ctx context.Context, in GenerateNotesInput) (*curriculum.Notes, error)
}

type notesService struct {
	log      *logger.Logger
	router   Completer
	prompts  *prompts.Catalog
	cache    GenerationCache
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

func NewNotesService(baseLog *logger.Logger, router Completer, promptCatalog *prompts.Catalog, cache GenerationCache) NotesService {
	return &notesService{
		log:      baseLog.With("service", "NotesService"),
		router:   router,
		prompts:  promptCatalog,
		cache:    cache,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   bluemonday.UGCPolicy(),
	}
}

func (s *notesService) Generate(ctx context.Context, in GenerateNotesInput) (*curriculum.Notes, error) {
	topic := strings.TrimSpace(in.Topic)
	step := strings.TrimSpace(in.StepTitle)
	if topic == "" || step == "" {
		return nil, apierr.BadRequest("invalid_notes_query", "topic and step_title are required")
	}
	desc := strings.TrimSpace(in.StepDescription)
	key := s.cache.Key(generation.KindNotes, topic, step, desc)

	notes, _, _, err := cachedGenerate(ctx, s.log, s.cache, generation.KindNotes, key, in.Force,
		func(ctx context.Context) (curriculum.Notes, generation.Meta, error) {
			req, err := s.prompts.Build(prompts.Notes, map[string]any{
				"Topic":           topic,
				"StepTitle":       step,
				"StepDescription": desc,
			})
			if err != nil {
				return curriculum.Notes{}, generation.Meta{}, err
			}
			resp, err := s.router.Complete(ctx, string(generation.KindNotes), req)
			if err != nil {
				return curriculum.Notes{}, generation.Meta{}, err
			}
			md := ai.StripFences(resp.Text)
			if md == "" {
				return curriculum.Notes{}, generation.Meta{}, apierr.Upstream("empty_notes", errors.New("provider returned no notes"))
			}
			html, err := s.Render(md)
			if err != nil {
				return curriculum.Notes{}, generation.Meta{}, err
			}
			return curriculum.Notes{
				Topic:     topic,
				StepTitle: step,
				Markdown:  md,
				HTML:      html,
				Provider:  resp.Provider,
				Model:     resp.Model,
			}, generation.Meta{Provider: resp.Provider, Model: resp.Model}, nil
		})
	if err != nil {
		return nil, err
	}
	return &notes, nil
}

// Render converts markdown to sanitized HTML.
func (s *notesService) Render(md string) (string, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render notes: %w", err)
	}
	return s.policy.Sanitize(buf.String()), nil
}
