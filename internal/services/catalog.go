package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/domain/catalog"
	catalogmod "github.com/yungbote/hermes-backend/internal/modules/catalog"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	maxBrowseDepth     = catalog.MaxLevels - 1
)

type CatalogService interface {
	Search(ctx context.Context, query string, limit int) ([]catalog.SearchHit, error)
	Browse(ctx context.Context, path []string) ([]catalog.BrowseNode, error)
	Get(ctx context.Context, id uuid.UUID) (*catalog.Discipline, error)
	// PathFor returns the discipline's level labels, for prompt context.
	PathFor(ctx context.Context, id uuid.UUID) ([]string, error)
	Seed(ctx context.Context, rows []*catalog.Discipline) (int64, error)
}

type catalogService struct {
	log  *logger.Logger
	repo repos.DisciplineRepo
}

func NewCatalogService(baseLog *logger.Logger, repo repos.DisciplineRepo) CatalogService {
	return &catalogService{
		log:  baseLog.With("service", "CatalogService"),
		repo: repo,
	}
}

func (s *catalogService) Search(ctx context.Context, query string, limit int) ([]catalog.SearchHit, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, apierr.BadRequest("missing_query", "search query is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	// The store returns a roughly ranked window; final ordering is ours.
	window := limit * 3
	if window < 50 {
		window = 50
	}
	rows, err := s.repo.Search(dbctx.Context{Ctx: ctx}, q, window)
	if err != nil {
		return nil, fmt.Errorf("search disciplines: %w", err)
	}
	return catalogmod.Rank(rows, q, limit), nil
}

func (s *catalogService) Browse(ctx context.Context, path []string) ([]catalog.BrowseNode, error) {
	clean := make([]string, 0, len(path))
	for _, p := range path {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, apierr.BadRequest("invalid_path", "path segments must not be empty")
		}
		clean = append(clean, p)
	}
	if len(clean) > maxBrowseDepth {
		return nil, apierr.BadRequest("invalid_path", "path may have at most %d segments", maxBrowseDepth)
	}
	nodes, err := s.repo.Browse(dbctx.Context{Ctx: ctx}, clean)
	if err != nil {
		return nil, fmt.Errorf("browse disciplines: %w", err)
	}
	return nodes, nil
}

func (s *catalogService) Get(ctx context.Context, id uuid.UUID) (*catalog.Discipline, error) {
	if id == uuid.Nil {
		return nil, apierr.BadRequest("invalid_discipline_id", "discipline id is required")
	}
	d, err := s.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load discipline: %w", err)
	}
	if d == nil {
		return nil, apierr.NotFound("discipline_not_found", "discipline")
	}
	return d, nil
}

func (s *catalogService) PathFor(ctx context.Context, id uuid.UUID) ([]string, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return d.Path(), nil
}

func (s *catalogService) Seed(ctx context.Context, rows []*catalog.Discipline) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := s.repo.Upsert(dbctx.Context{Ctx: ctx}, rows)
	if err != nil {
		return 0, fmt.Errorf("seed disciplines: %w", err)
	}
	s.log.Info("disciplines seeded", "rows", n)
	return n, nil
}
