package generation

import (
	"gorm.io/gorm"

	"github.com/yungbote/hermes-backend/internal/domain/generation"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type AICallLogRepo interface {
	Create(dbc dbctx.Context, row *generation.AICallLog) error
	ListRecent(dbc dbctx.Context, kind string, limit int) ([]*generation.AICallLog, error)
}

type aiCallLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAICallLogRepo(db *gorm.DB, baseLog *logger.Logger) AICallLogRepo {
	return &aiCallLogRepo{
		db:  db,
		log: baseLog.With("repo", "AICallLogRepo"),
	}
}

func (r *aiCallLogRepo) Create(dbc dbctx.Context, row *generation.AICallLog) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *aiCallLogRepo) ListRecent(dbc dbctx.Context, kind string, limit int) ([]*generation.AICallLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := dbc.DB(r.db).Order("created_at DESC").Limit(limit)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var out []*generation.AICallLog
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
