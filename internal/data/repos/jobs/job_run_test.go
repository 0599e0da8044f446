package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/hermes-backend/internal/data/repos/testutil"
	"github.com/yungbote/hermes-backend/internal/domain/jobs"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
)

func newJob(owner uuid.UUID, jobType, status string, created time.Time) *jobs.JobRun {
	return &jobs.JobRun{
		ID:          uuid.New(),
		OwnerUserID: owner,
		JobType:     jobType,
		EntityType:  "learning_path",
		EntityID:    ptrUUID(uuid.New()),
		Status:      status,
		Stage:       status,
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestJobRunRepo(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	ownerUserID := uuid.New()

	queued := newJob(ownerUserID, "test_job", jobs.StatusQueued, now.Add(-3*time.Hour))
	failed := newJob(ownerUserID, "test_job", jobs.StatusFailed, now.Add(-2*time.Hour))
	failed.LastErrorAt = ptrTime(now.Add(-2 * time.Hour))
	staleRunning := newJob(ownerUserID, "test_job", jobs.StatusRunning, now.Add(-1*time.Hour))
	staleRunning.HeartbeatAt = ptrTime(now.Add(-10 * time.Hour))
	deferred := newJob(ownerUserID, "test_job", jobs.StatusQueued, now.Add(-4*time.Hour))
	deferred.RunAfter = ptrTime(now.Add(time.Hour))

	created, err := repo.Create(dbc, []*jobs.JobRun{queued, failed, staleRunning, deferred})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 4 {
		t.Fatalf("Create: expected 4, got %d", len(created))
	}

	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{queued.ID, failed.ID, staleRunning.ID}); err != nil || len(rows) != 3 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if one, err := repo.GetByID(dbc, queued.ID); err != nil || one == nil || one.JobType != "test_job" {
		t.Fatalf("GetByID: err=%v job=%v", err, one)
	}
	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID missing: err=%v job=%v", err, missing)
	}

	// GetLatestByEntity
	entityID := uuid.New()
	older := newJob(ownerUserID, "build", jobs.StatusSucceeded, now.Add(-5*time.Hour))
	older.EntityID = &entityID
	newer := newJob(ownerUserID, "build", jobs.StatusSucceeded, now.Add(-4*time.Hour))
	newer.EntityID = &entityID
	if _, err := repo.Create(dbc, []*jobs.JobRun{older, newer}); err != nil {
		t.Fatalf("seed latest: %v", err)
	}
	latest, err := repo.GetLatestByEntity(dbc, ownerUserID, "learning_path", entityID, "build")
	if err != nil {
		t.Fatalf("GetLatestByEntity: %v", err)
	}
	if latest == nil || latest.ID != newer.ID {
		t.Fatalf("GetLatestByEntity: expected %v got %v", newer.ID, latest)
	}

	// ClaimNextRunnable walks the runnable set in created_at ASC order and
	// skips jobs deferred into the future.
	for i, want := range []uuid.UUID{queued.ID, failed.ID, staleRunning.ID} {
		claim, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
		if err != nil {
			t.Fatalf("ClaimNextRunnable #%d: %v", i+1, err)
		}
		if claim == nil || claim.ID != want {
			t.Fatalf("ClaimNextRunnable #%d: expected %v got %v", i+1, want, claim)
		}
		if claim.Status != jobs.StatusRunning || claim.Attempts != 1 {
			t.Fatalf("ClaimNextRunnable #%d: status=%s attempts=%d", i+1, claim.Status, claim.Attempts)
		}
	}
	claim4, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
	if err != nil {
		t.Fatalf("ClaimNextRunnable #4: %v", err)
	}
	if claim4 != nil {
		t.Fatalf("ClaimNextRunnable #4: expected nil, got %v", claim4)
	}

	// UpdateFieldsUnlessStatus refuses to touch a job in a terminal state.
	if err := repo.UpdateFields(dbc, queued.ID, map[string]interface{}{"status": jobs.StatusCanceled, "stage": "canceled"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	ok, err := repo.UpdateFieldsUnlessStatus(dbc, queued.ID, []string{jobs.StatusCanceled}, map[string]interface{}{"progress": 50})
	if err != nil {
		t.Fatalf("UpdateFieldsUnlessStatus: %v", err)
	}
	if ok {
		t.Fatalf("UpdateFieldsUnlessStatus: expected no rows updated")
	}

	if err := repo.Heartbeat(dbc, failed.ID); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	rEntityID := uuid.New()
	runnable := newJob(ownerUserID, "rebuild", jobs.StatusQueued, now)
	runnable.EntityID = &rEntityID
	if _, err := repo.Create(dbc, []*jobs.JobRun{runnable}); err != nil {
		t.Fatalf("seed runnable: %v", err)
	}

	has, err := repo.HasRunnableForEntity(dbc, ownerUserID, "learning_path", rEntityID, "rebuild")
	if err != nil {
		t.Fatalf("HasRunnableForEntity: %v", err)
	}
	if !has {
		t.Fatalf("HasRunnableForEntity: expected true")
	}
	has, err = repo.HasRunnableForEntity(dbc, ownerUserID, "learning_path", rEntityID, "other")
	if err != nil {
		t.Fatalf("HasRunnableForEntity (other): %v", err)
	}
	if has {
		t.Fatalf("HasRunnableForEntity (other): expected false")
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrUUID(u uuid.UUID) *uuid.UUID { return &u }
