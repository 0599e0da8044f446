package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/hermes-backend/internal/ai"
	"github.com/yungbote/hermes-backend/internal/ai/prompts"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/domain/generation"
	resourcesmod "github.com/yungbote/hermes-backend/internal/modules/resources"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
	"github.com/yungbote/hermes-backend/internal/platform/youtube"
)

var errVideoSearchDisabled = errors.New("video search not configured")

type FindResourcesInput struct {
	Topic     string
	StepTitle string
	Force     bool
}

type ResourceService interface {
	Find(ctx context.Context, in FindResourcesInput) (*curriculum.ResourceSet, error)
}

type resourceService struct {
	log     *logger.Logger
	videos  youtube.Client
	router  Completer
	prompts *prompts.Catalog
	cache   GenerationCache
}

func NewResourceService(baseLog *logger.Logger, videos youtube.Client, router Completer, promptCatalog *prompts.Catalog, cache GenerationCache) ResourceService {
	return &resourceService{
		log:     baseLog.With("service", "ResourceService"),
		videos:  videos,
		router:  router,
		prompts: promptCatalog,
		cache:   cache,
	}
}

func (s *resourceService) Find(ctx context.Context, in FindResourcesInput) (*curriculum.ResourceSet, error) {
	topic := strings.TrimSpace(in.Topic)
	step := strings.TrimSpace(in.StepTitle)
	if topic == "" || step == "" {
		return nil, apierr.BadRequest("invalid_resource_query", "topic and step_title are required")
	}
	key := s.cache.Key(generation.KindResources, topic, step)
	set, _, _, err := cachedGenerate(ctx, s.log, s.cache, generation.KindResources, key, in.Force,
		func(ctx context.Context) (curriculum.ResourceSet, generation.Meta, error) {
			return s.gather(ctx, topic, step)
		})
	if err != nil {
		return nil, err
	}
	return &set, nil
}

// gather queries video search and the curated-reading prompt concurrently.
// One failing branch degrades to no results from that branch.
func (s *resourceService) gather(ctx context.Context, topic, step string) (curriculum.ResourceSet, generation.Meta, error) {
	var (
		videos, curated []curriculum.Resource
		videoErr, llmErr error
		meta             generation.Meta
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		videos, videoErr = s.searchVideos(gctx, topic, step)
		return nil
	})
	g.Go(func() error {
		curated, meta, llmErr = s.curate(gctx, topic, step)
		return nil
	})
	_ = g.Wait()

	if videoErr != nil && llmErr != nil {
		return curriculum.ResourceSet{}, meta, apierr.Upstream("resources_unavailable", errors.Join(videoErr, llmErr))
	}
	if videoErr != nil && !errors.Is(videoErr, errVideoSearchDisabled) {
		s.log.Warn("video search failed; continuing with curated resources", "error", videoErr)
	}
	if llmErr != nil {
		s.log.Warn("curated resources failed; continuing with videos", "error", llmErr)
	}

	merged := append(append([]curriculum.Resource{}, videos...), curated...)
	merged = resourcesmod.CapPerKind(resourcesmod.Dedupe(merged), resourcesmod.MaxPerKind)
	if meta.Provider == "" && len(videos) > 0 {
		meta.Provider = "youtube"
	}
	return curriculum.ResourceSet{Topic: topic, StepTitle: step, Resources: merged}, meta, nil
}

func (s *resourceService) searchVideos(ctx context.Context, topic, step string) ([]curriculum.Resource, error) {
	if s.videos == nil {
		return nil, errVideoSearchDisabled
	}
	found, err := s.videos.Search(ctx, step+" "+topic, 0)
	if err != nil {
		return nil, err
	}
	out := make([]curriculum.Resource, 0, len(found))
	for _, v := range found {
		out = append(out, curriculum.Resource{
			Kind:            curriculum.ResourceVideo,
			Title:           v.Title,
			URL:             v.URL(),
			Source:          v.Channel,
			Description:     v.Description,
			ThumbnailURL:    v.ThumbnailURL,
			DurationMinutes: v.DurationMinutes,
		})
	}
	return out, nil
}

func (s *resourceService) curate(ctx context.Context, topic, step string) ([]curriculum.Resource, generation.Meta, error) {
	req, err := s.prompts.Build(prompts.Resources, map[string]any{"Topic": topic, "StepTitle": step})
	if err != nil {
		return nil, generation.Meta{}, err
	}
	resp, err := s.router.Complete(ctx, string(generation.KindResources), req)
	if err != nil {
		return nil, generation.Meta{}, err
	}
	meta := generation.Meta{Provider: resp.Provider, Model: resp.Model}
	var out []curriculum.Resource
	if doc, err := ai.ExtractJSON(resp.Text); err == nil {
		parsed, perr := resourcesmod.ParseCurated(doc)
		if perr != nil {
			s.log.Warn("curated resources did not parse", "error", perr)
		}
		out = append(out, parsed...)
	} else if len(resp.Citations) == 0 {
		return nil, meta, apierr.Upstream("invalid_model_output", err)
	}
	out = append(out, resourcesmod.CitationReadings(resp.Citations)...)
	return out, meta, nil
}
