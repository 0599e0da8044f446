package generation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/hermes-backend/internal/data/repos/testutil"
	"github.com/yungbote/hermes-backend/internal/domain/generation"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
)

func TestCacheRepo_UpsertReplacesPayload(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewCacheRepo(db, testutil.Logger(t))

	expires := time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.Upsert(dbc, &generation.Cache{
		Kind:      generation.KindNotes,
		CacheKey:  "abc",
		Payload:   datatypes.JSON(`{"v":1}`),
		Provider:  "gemini",
		ExpiresAt: &expires,
	}))
	require.NoError(t, repo.Upsert(dbc, &generation.Cache{
		Kind:     generation.KindNotes,
		CacheKey: "abc",
		Payload:  datatypes.JSON(`{"v":2}`),
		Provider: "claude",
	}))

	var count int64
	require.NoError(t, db.Model(&generation.Cache{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := repo.Get(dbc, generation.KindNotes, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"v":2}`, string(got.Payload))
	assert.Equal(t, "claude", got.Provider)
	assert.Nil(t, got.ExpiresAt)

	other, err := repo.Get(dbc, generation.KindSyllabus, "abc")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestCacheRepo_DeleteExpired(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewCacheRepo(db, testutil.Logger(t))

	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, repo.Upsert(dbc, &generation.Cache{Kind: generation.KindNotes, CacheKey: "old", Payload: datatypes.JSON(`{}`), ExpiresAt: &past}))
	require.NoError(t, repo.Upsert(dbc, &generation.Cache{Kind: generation.KindNotes, CacheKey: "keep", Payload: datatypes.JSON(`{}`)}))

	n, err := repo.DeleteExpired(dbc, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	kept, err := repo.Get(dbc, generation.KindNotes, "keep")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestAICallLogRepo(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewAICallLogRepo(db, testutil.Logger(t))

	require.NoError(t, repo.Create(dbc, &generation.AICallLog{Kind: "syllabus", Provider: "perplexity", Attempt: 1, Success: true}))
	require.NoError(t, repo.Create(dbc, &generation.AICallLog{Kind: "notes", Provider: "gemini", Attempt: 1, Error: "boom"}))

	rows, err := repo.ListRecent(dbc, "notes", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "gemini", rows[0].Provider)
	assert.False(t, rows[0].Success)
}
