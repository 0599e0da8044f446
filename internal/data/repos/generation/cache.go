package generation

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/hermes-backend/internal/data/dberr"
	"github.com/yungbote/hermes-backend/internal/domain/generation"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type CacheRepo interface {
	// Get returns the row for (kind, key) or nil. Expiry is left to the caller.
	Get(dbc dbctx.Context, kind generation.Kind, key string) (*generation.Cache, error)
	Upsert(dbc dbctx.Context, row *generation.Cache) error
	DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type cacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCacheRepo(db *gorm.DB, baseLog *logger.Logger) CacheRepo {
	return &cacheRepo{
		db:  db,
		log: baseLog.With("repo", "GenerationCacheRepo"),
	}
}

func (r *cacheRepo) Get(dbc dbctx.Context, kind generation.Kind, key string) (*generation.Cache, error) {
	if kind == "" || key == "" {
		return nil, nil
	}
	var row generation.Cache
	err := dbc.DB(r.db).
		Where("kind = ? AND cache_key = ?", kind, key).
		First(&row).Error
	if dberr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *cacheRepo) Upsert(dbc dbctx.Context, row *generation.Cache) error {
	if row == nil {
		return nil
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "kind"}, {Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"payload", "provider", "model", "prompt_version", "expires_at", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *cacheRepo) DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	res := dbc.DB(r.db).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&generation.Cache{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
