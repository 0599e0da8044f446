package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/hermes-backend/internal/data/dberr"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type LearningPathRepo interface {
	Create(dbc dbctx.Context, p *curriculum.LearningPath) (*curriculum.LearningPath, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*curriculum.LearningPath, error)
	// LockByID loads the path for update; callers must pass a transaction.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*curriculum.LearningPath, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*curriculum.LearningPath, error)
	Save(dbc dbctx.Context, p *curriculum.LearningPath) error
}

type learningPathRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningPathRepo(db *gorm.DB, baseLog *logger.Logger) LearningPathRepo {
	return &learningPathRepo{
		db:  db,
		log: baseLog.With("repo", "LearningPathRepo"),
	}
}

func (r *learningPathRepo) Create(dbc dbctx.Context, p *curriculum.LearningPath) (*curriculum.LearningPath, error) {
	if err := dbc.DB(r.db).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *learningPathRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*curriculum.LearningPath, error) {
	return r.get(dbc.DB(r.db), id)
}

func (r *learningPathRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*curriculum.LearningPath, error) {
	q := dbc.DB(r.db)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.get(q, id)
}

func (r *learningPathRepo) get(q *gorm.DB, id uuid.UUID) (*curriculum.LearningPath, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var p curriculum.LearningPath
	err := q.Where("id = ?", id).First(&p).Error
	if dberr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *learningPathRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*curriculum.LearningPath, error) {
	var out []*curriculum.LearningPath
	if userID == uuid.Nil {
		return out, nil
	}
	err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Save persists the mutable stepper fields of p.
func (r *learningPathRepo) Save(dbc dbctx.Context, p *curriculum.LearningPath) error {
	if p == nil || p.ID == uuid.Nil {
		return nil
	}
	p.UpdatedAt = time.Now().UTC()
	return dbc.DB(r.db).
		Model(&curriculum.LearningPath{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"mode":         p.Mode,
			"steps":        p.Steps,
			"confirmed_at": p.ConfirmedAt,
			"completed_at": p.CompletedAt,
			"last_job_id":  p.LastJobID,
			"updated_at":   p.UpdatedAt,
		}).Error
}
