package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/data/repos/testutil"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/domain/jobs"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
)

type missionFixture struct {
	env     *testEnv
	svc     MissionService
	jobs    JobService
	jobRepo repos.JobRunRepo
}

func newMissionFixture(t *testing.T) *missionFixture {
	t.Helper()
	env := newTestEnv(t)
	jobRepo := repos.NewJobRunRepo(env.db, env.log)
	jobSvc := NewJobService(env.db, env.log, jobRepo)
	svc := NewMissionService(env.db, env.log, repos.NewLearningPathRepo(env.db, env.log), newSyllabusService(env), jobSvc)
	return &missionFixture{env: env, svc: svc, jobs: jobSvc, jobRepo: jobRepo}
}

func TestMissionDraftToCompleted(t *testing.T) {
	f := newMissionFixture(t)
	userID := uuid.New()
	ctx := userCtx(userID)
	syl := testutil.SeedSyllabus(t, ctx, f.env.db, userID, "Go")

	p, err := f.svc.CreateDraft(ctx, syl.ID)
	require.NoError(t, err)
	assert.Equal(t, curriculum.PathModeDraft, p.Mode)
	require.Len(t, p.StepList(), 3)

	p, err = f.svc.Toggle(ctx, p.ID, "m1s2")
	require.NoError(t, err)
	assert.False(t, p.StepList()[1].Selected)

	p, err = f.svc.Confirm(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, curriculum.PathModeActive, p.Mode)
	require.NotNil(t, p.LastJobID)
	assert.Equal(t, curriculum.StepCurrent, p.StepList()[0].Status)

	job, err := f.jobs.GetByIDForRequestUser(ctx, *p.LastJobID)
	require.NoError(t, err)
	assert.Equal(t, JobTypePathMaterialize, job.JobType)
	assert.Equal(t, jobs.StatusQueued, job.Status)
	assert.Contains(t, string(job.Payload), p.ID.String())

	_, err = f.svc.CompleteStep(ctx, p.ID, "m1s2")
	_, code := apierr.StatusOf(err, 0)
	assert.Equal(t, "step_not_selected", code)

	p, err = f.svc.CompleteStep(ctx, p.ID, "m1s1")
	require.NoError(t, err)
	assert.Equal(t, curriculum.StepCompleted, p.StepList()[0].Status)
	assert.Equal(t, curriculum.StepCurrent, p.StepList()[2].Status)

	p, err = f.svc.CompleteStep(ctx, p.ID, "m2s1")
	require.NoError(t, err)
	assert.Equal(t, curriculum.PathModeCompleted, p.Mode)
	assert.NotNil(t, p.CompletedAt)

	stored, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, curriculum.PathModeCompleted, stored.Mode)
}

func TestMissionEditKeepsCompletedSteps(t *testing.T) {
	f := newMissionFixture(t)
	userID := uuid.New()
	ctx := userCtx(userID)
	syl := testutil.SeedSyllabus(t, ctx, f.env.db, userID, "Go")

	p, err := f.svc.CreateDraft(ctx, syl.ID)
	require.NoError(t, err)
	p, err = f.svc.Confirm(ctx, p.ID)
	require.NoError(t, err)
	firstJob := *p.LastJobID
	p, err = f.svc.CompleteStep(ctx, p.ID, "m1s1")
	require.NoError(t, err)

	p, err = f.svc.Edit(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, curriculum.PathModeDraft, p.Mode)
	steps := p.StepList()
	assert.Equal(t, curriculum.StepCompleted, steps[0].Status)
	assert.Equal(t, curriculum.StepPending, steps[1].Status)

	_, err = f.svc.CompleteStep(ctx, p.ID, "m1s2")
	status, code := apierr.StatusOf(err, 0)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "path_not_active", code)

	// The first job is still queued, so confirming again reuses it.
	p, err = f.svc.Confirm(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, firstJob, *p.LastJobID)
	assert.Equal(t, curriculum.StepCurrent, p.StepList()[1].Status)
}

func TestMissionConfirmRequiresSelection(t *testing.T) {
	f := newMissionFixture(t)
	userID := uuid.New()
	ctx := userCtx(userID)
	syl := testutil.SeedSyllabus(t, ctx, f.env.db, userID, "Go")

	p, err := f.svc.CreateDraft(ctx, syl.ID)
	require.NoError(t, err)
	p, err = f.svc.SetAll(ctx, p.ID, false)
	require.NoError(t, err)
	for _, s := range p.StepList() {
		assert.False(t, s.Selected)
	}

	_, err = f.svc.Confirm(ctx, p.ID)
	status, code := apierr.StatusOf(err, 0)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "no_steps_selected", code)

	// The failed confirm rolled back; the path is still an editable draft.
	_, err = f.svc.Toggle(ctx, p.ID, "m2s1")
	require.NoError(t, err)
	_, err = f.svc.Toggle(ctx, p.ID, "nope")
	status, _ = apierr.StatusOf(err, 0)
	assert.Equal(t, http.StatusNotFound, status)

	n, err := f.jobRepo.HasRunnableForEntity(dbctx.Context{Ctx: ctx}, userID, entityTypeLearningPath, p.ID, JobTypePathMaterialize)
	require.NoError(t, err)
	assert.False(t, n)
}

func TestMissionPathsAreScopedToOwner(t *testing.T) {
	f := newMissionFixture(t)
	ownerID := uuid.New()
	owner := userCtx(ownerID)
	syl := testutil.SeedSyllabus(t, owner, f.env.db, ownerID, "Go")
	p, err := f.svc.CreateDraft(owner, syl.ID)
	require.NoError(t, err)

	other := userCtx(uuid.New())
	_, err = f.svc.Get(other, p.ID)
	_, code := apierr.StatusOf(err, 0)
	assert.Equal(t, "path_not_found", code)

	_, err = f.svc.Toggle(other, p.ID, "m1s1")
	_, code = apierr.StatusOf(err, 0)
	assert.Equal(t, "path_not_found", code)

	_, err = f.svc.CreateDraft(other, syl.ID)
	_, code = apierr.StatusOf(err, 0)
	assert.Equal(t, "syllabus_not_found", code)

	list, err := f.svc.ListForUser(other)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = f.svc.ListForUser(owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestJobServiceCancel(t *testing.T) {
	f := newMissionFixture(t)
	userID := uuid.New()
	ctx := userCtx(userID)

	job, err := f.jobs.Enqueue(dbctx.Context{Ctx: ctx}, userID, "noop", "", nil, nil)
	require.NoError(t, err)

	_, err = f.jobs.CancelForRequestUser(userCtx(uuid.New()), job.ID)
	_, code := apierr.StatusOf(err, 0)
	assert.Equal(t, "job_not_found", code)

	canceled, err := f.jobs.CancelForRequestUser(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCanceled, canceled.Status)

	// Terminal jobs stay as they are.
	again, err := f.jobs.CancelForRequestUser(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCanceled, again.Status)

	_, err = f.jobs.Enqueue(dbctx.Context{Ctx: ctx}, uuid.Nil, "noop", "", nil, nil)
	assert.Error(t, err)
}
