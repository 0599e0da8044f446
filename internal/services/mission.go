package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/modules/mission"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

const entityTypeLearningPath = "learning_path"

type MissionService interface {
	CreateDraft(ctx context.Context, syllabusID uuid.UUID) (*curriculum.LearningPath, error)
	Toggle(ctx context.Context, pathID uuid.UUID, stepKey string) (*curriculum.LearningPath, error)
	SetAll(ctx context.Context, pathID uuid.UUID, selected bool) (*curriculum.LearningPath, error)
	// Confirm activates the draft and enqueues a path_materialize job.
	Confirm(ctx context.Context, pathID uuid.UUID) (*curriculum.LearningPath, error)
	Edit(ctx context.Context, pathID uuid.UUID) (*curriculum.LearningPath, error)
	CompleteStep(ctx context.Context, pathID uuid.UUID, stepKey string) (*curriculum.LearningPath, error)
	Get(ctx context.Context, pathID uuid.UUID) (*curriculum.LearningPath, error)
	ListForUser(ctx context.Context) ([]*curriculum.LearningPath, error)
}

type missionService struct {
	db      *gorm.DB
	log     *logger.Logger
	paths   repos.LearningPathRepo
	syllabi SyllabusService
	jobs    JobService
	now     func() time.Time
}

func NewMissionService(db *gorm.DB, baseLog *logger.Logger, paths repos.LearningPathRepo, syllabi SyllabusService, jobSvc JobService) MissionService {
	return &missionService{
		db:      db,
		log:     baseLog.With("service", "MissionService"),
		paths:   paths,
		syllabi: syllabi,
		jobs:    jobSvc,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *missionService) CreateDraft(ctx context.Context, syllabusID uuid.UUID) (*curriculum.LearningPath, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	syl, err := s.syllabi.Get(ctx, syllabusID)
	if err != nil {
		return nil, err
	}
	p := mission.NewDraft(userID, syl)
	if len(p.StepList()) == 0 {
		return nil, apierr.BadRequest("empty_syllabus", "syllabus has no steps")
	}
	created, err := s.paths.Create(dbctx.Context{Ctx: ctx}, p)
	if err != nil {
		return nil, fmt.Errorf("create path: %w", err)
	}
	s.log.Info("Draft path created", "path_id", created.ID, "syllabus_id", syllabusID, "steps", len(created.StepList()))
	return created, nil
}

func (s *missionService) Toggle(ctx context.Context, pathID uuid.UUID, stepKey string) (*curriculum.LearningPath, error) {
	return s.mutate(ctx, pathID, func(_ dbctx.Context, p *curriculum.LearningPath) error {
		return mission.Toggle(p, stepKey)
	})
}

func (s *missionService) SetAll(ctx context.Context, pathID uuid.UUID, selected bool) (*curriculum.LearningPath, error) {
	return s.mutate(ctx, pathID, func(_ dbctx.Context, p *curriculum.LearningPath) error {
		return mission.SetAll(p, selected)
	})
}

func (s *missionService) Confirm(ctx context.Context, pathID uuid.UUID) (*curriculum.LearningPath, error) {
	return s.mutate(ctx, pathID, func(dbc dbctx.Context, p *curriculum.LearningPath) error {
		if err := mission.Confirm(p, s.now()); err != nil {
			return err
		}
		if p.Mode != curriculum.PathModeActive {
			return nil
		}
		job, _, err := s.jobs.EnqueueIfNeeded(dbc, p.UserID, JobTypePathMaterialize, entityTypeLearningPath, p.ID, map[string]any{
			"path_id": p.ID.String(),
		})
		if err != nil {
			return fmt.Errorf("enqueue %s: %w", JobTypePathMaterialize, err)
		}
		if job != nil {
			p.LastJobID = &job.ID
		}
		return nil
	})
}

func (s *missionService) Edit(ctx context.Context, pathID uuid.UUID) (*curriculum.LearningPath, error) {
	return s.mutate(ctx, pathID, func(_ dbctx.Context, p *curriculum.LearningPath) error {
		return mission.Edit(p)
	})
}

func (s *missionService) CompleteStep(ctx context.Context, pathID uuid.UUID, stepKey string) (*curriculum.LearningPath, error) {
	return s.mutate(ctx, pathID, func(_ dbctx.Context, p *curriculum.LearningPath) error {
		return mission.CompleteStep(p, stepKey, s.now())
	})
}

func (s *missionService) Get(ctx context.Context, pathID uuid.UUID) (*curriculum.LearningPath, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.paths.GetByID(dbctx.Context{Ctx: ctx}, pathID)
	if err != nil {
		return nil, fmt.Errorf("load path: %w", err)
	}
	if p == nil || p.UserID != userID {
		return nil, apierr.NotFound("path_not_found", "path")
	}
	return p, nil
}

func (s *missionService) ListForUser(ctx context.Context) ([]*curriculum.LearningPath, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.paths.ListByUser(dbctx.Context{Ctx: ctx}, userID)
}

// mutate loads the caller's path under a row lock, applies fn, and saves it
// in the same transaction.
func (s *missionService) mutate(ctx context.Context, pathID uuid.UUID, fn func(dbc dbctx.Context, p *curriculum.LearningPath) error) (*curriculum.LearningPath, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	var out *curriculum.LearningPath
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := s.paths.LockByID(dbc, pathID)
		if err != nil {
			return fmt.Errorf("lock path: %w", err)
		}
		if p == nil || p.UserID != userID {
			return apierr.NotFound("path_not_found", "path")
		}
		if err := fn(dbc, p); err != nil {
			return err
		}
		if err := s.paths.Save(dbc, p); err != nil {
			return fmt.Errorf("save path: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
