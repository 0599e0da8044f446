package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/domain/jobs"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
	"github.com/yungbote/hermes-backend/internal/platform/ctxutil"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

const JobTypePathMaterialize = "path_materialize"

type JobService interface {
	Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*jobs.JobRun, error)
	// EnqueueIfNeeded skips creation when a queued or running job already exists for the entity.
	EnqueueIfNeeded(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID uuid.UUID, payload map[string]any) (*jobs.JobRun, bool, error)
	GetByIDForRequestUser(ctx context.Context, jobID uuid.UUID) (*jobs.JobRun, error)
	GetLatestForEntityForRequestUser(ctx context.Context, entityType string, entityID uuid.UUID, jobType string) (*jobs.JobRun, error)
	CancelForRequestUser(ctx context.Context, jobID uuid.UUID) (*jobs.JobRun, error)
}

type jobService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.JobRunRepo
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo) JobService {
	return &jobService{
		db:   db,
		log:  baseLog.With("service", "JobService"),
		repo: repo,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*jobs.JobRun, error) {
	if ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_user_id")
	}
	if jobType == "" {
		return nil, fmt.Errorf("missing job_type")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if td := ctxutil.GetTraceData(dbc.Ctx); td != nil {
		if td.TraceID != "" {
			if _, ok := payload["trace_id"]; !ok {
				payload["trace_id"] = td.TraceID
			}
		}
		if td.RequestID != "" {
			if _, ok := payload["request_id"]; !ok {
				payload["request_id"] = td.RequestID
			}
		}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	now := time.Now().UTC()
	job := &jobs.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      jobs.StatusQueued,
		Stage:       "queued",
		Message:     "Queued",
		Payload:     datatypes.JSON(b),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.repo.Create(dbc, []*jobs.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.log.Debug("Job enqueued", "job_id", job.ID, "job_type", jobType, "owner_user_id", ownerUserID)
	return job, nil
}

func (s *jobService) EnqueueIfNeeded(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID uuid.UUID, payload map[string]any) (*jobs.JobRun, bool, error) {
	has, err := s.repo.HasRunnableForEntity(dbc, ownerUserID, entityType, entityID, jobType)
	if err != nil {
		return nil, false, err
	}
	if has {
		existing, err := s.repo.GetLatestByEntity(dbc, ownerUserID, entityType, entityID, jobType)
		return existing, false, err
	}
	id := entityID
	job, err := s.Enqueue(dbc, ownerUserID, jobType, entityType, &id, payload)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func (s *jobService) GetByIDForRequestUser(ctx context.Context, jobID uuid.UUID) (*jobs.JobRun, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	job, err := s.repo.GetByID(dbctx.Context{Ctx: ctx}, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil || job.OwnerUserID != userID {
		return nil, apierr.NotFound("job_not_found", "job")
	}
	return job, nil
}

func (s *jobService) GetLatestForEntityForRequestUser(ctx context.Context, entityType string, entityID uuid.UUID, jobType string) (*jobs.JobRun, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	job, err := s.repo.GetLatestByEntity(dbctx.Context{Ctx: ctx}, userID, entityType, entityID, jobType)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apierr.NotFound("job_not_found", "job")
	}
	return job, nil
}

// CancelForRequestUser marks a queued or running job canceled. The worker
// notices on its next heartbeat and stops the handler.
func (s *jobService) CancelForRequestUser(ctx context.Context, jobID uuid.UUID) (*jobs.JobRun, error) {
	job, err := s.GetByIDForRequestUser(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Terminal() {
		return job, nil
	}
	now := time.Now().UTC()
	ok, err := s.repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, job.ID,
		[]string{jobs.StatusSucceeded, jobs.StatusFailed, jobs.StatusCanceled},
		map[string]interface{}{
			"status":     jobs.StatusCanceled,
			"stage":      "canceled",
			"message":    "Canceled",
			"updated_at": now,
		})
	if err != nil {
		return nil, err
	}
	if ok {
		s.log.Info("Job canceled", "job_id", job.ID)
	}
	return s.repo.GetByID(dbctx.Context{Ctx: ctx}, job.ID)
}
