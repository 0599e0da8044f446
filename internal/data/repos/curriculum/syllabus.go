package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/hermes-backend/internal/data/dberr"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type SyllabusRepo interface {
	Create(dbc dbctx.Context, s *curriculum.Syllabus) (*curriculum.Syllabus, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*curriculum.Syllabus, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*curriculum.Syllabus, error)
	UpdateGrammar(dbc dbctx.Context, id uuid.UUID, grammar curriculum.Grammar) error
}

type syllabusRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSyllabusRepo(db *gorm.DB, baseLog *logger.Logger) SyllabusRepo {
	return &syllabusRepo{
		db:  db,
		log: baseLog.With("repo", "SyllabusRepo"),
	}
}

func (r *syllabusRepo) Create(dbc dbctx.Context, s *curriculum.Syllabus) (*curriculum.Syllabus, error) {
	if err := dbc.DB(r.db).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *syllabusRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*curriculum.Syllabus, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var s curriculum.Syllabus
	err := dbc.DB(r.db).Where("id = ?", id).First(&s).Error
	if dberr.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *syllabusRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*curriculum.Syllabus, error) {
	var out []*curriculum.Syllabus
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *syllabusRepo) UpdateGrammar(dbc dbctx.Context, id uuid.UUID, grammar curriculum.Grammar) error {
	if id == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).
		Model(&curriculum.Syllabus{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"grammar":    datatypes.NewJSONType(grammar),
			"updated_at": time.Now().UTC(),
		}).Error
}
