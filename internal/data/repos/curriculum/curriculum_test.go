package curriculum

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/hermes-backend/internal/data/repos/testutil"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
)

func TestSyllabusRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewSyllabusRepo(db, testutil.Logger(t))

	userID := uuid.New()
	seeded := testutil.SeedSyllabus(t, ctx, db, userID, "Linear algebra")

	got, err := repo.GetByID(dbc, seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Linear algebra", got.Topic)
	assert.Len(t, got.Content.Data().Modules, 2)
	assert.True(t, got.Grammar.Data().Empty())

	score := 88
	now := time.Now().UTC()
	require.NoError(t, repo.UpdateGrammar(dbc, seeded.ID, curriculum.Grammar{
		Steps:       []curriculum.StepGrammar{{StepKey: "m1s1", BloomLevel: curriculum.BloomRemember}},
		Report:      &curriculum.Report{Score: score, Passed: true},
		GeneratedAt: &now,
	}))
	got, err = repo.GetByID(dbc, seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Grammar.Data().Report)
	assert.Equal(t, score, got.Grammar.Data().Report.Score)

	list, err := repo.ListByUser(dbc, userID, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	missing, err := repo.GetByID(dbc, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLearningPathRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewLearningPathRepo(db, testutil.Logger(t))

	userID := uuid.New()
	p := &curriculum.LearningPath{
		UserID:     userID,
		SyllabusID: uuid.New(),
		Title:      "Linear algebra",
		Mode:       curriculum.PathModeDraft,
	}
	p.SetSteps([]curriculum.PathStep{
		{Key: "m1s1", Title: "Vectors", Order: 0, Selected: true, Status: curriculum.StepPending},
		{Key: "m1s2", Title: "Matrices", Order: 1, Selected: true, Status: curriculum.StepPending},
	})
	_, err := repo.Create(dbc, p)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, p.ID)

	err = db.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.LockByID(dbctx.Context{Ctx: ctx, Tx: tx}, p.ID)
		require.NoError(t, err)
		require.NotNil(t, locked)
		steps := locked.StepList()
		steps[0].Status = curriculum.StepCurrent
		locked.SetSteps(steps)
		locked.Mode = curriculum.PathModeActive
		return repo.Save(dbctx.Context{Ctx: ctx, Tx: tx}, locked)
	})
	require.NoError(t, err)

	got, err := repo.GetByID(dbc, p.ID)
	require.NoError(t, err)
	assert.Equal(t, curriculum.PathModeActive, got.Mode)
	assert.Equal(t, curriculum.StepCurrent, got.StepList()[0].Status)

	list, err := repo.ListByUser(dbc, userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	other, err := repo.ListByUser(dbc, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}
