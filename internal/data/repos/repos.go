package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/hermes-backend/internal/data/repos/catalog"
	"github.com/yungbote/hermes-backend/internal/data/repos/curriculum"
	"github.com/yungbote/hermes-backend/internal/data/repos/generation"
	"github.com/yungbote/hermes-backend/internal/data/repos/jobs"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type DisciplineRepo = catalog.DisciplineRepo

type SyllabusRepo = curriculum.SyllabusRepo
type LearningPathRepo = curriculum.LearningPathRepo

type GenerationCacheRepo = generation.CacheRepo
type AICallLogRepo = generation.AICallLogRepo

type JobRunRepo = jobs.JobRunRepo

func NewDisciplineRepo(db *gorm.DB, baseLog *logger.Logger) DisciplineRepo {
	return catalog.NewDisciplineRepo(db, baseLog)
}

func NewSyllabusRepo(db *gorm.DB, baseLog *logger.Logger) SyllabusRepo {
	return curriculum.NewSyllabusRepo(db, baseLog)
}

func NewLearningPathRepo(db *gorm.DB, baseLog *logger.Logger) LearningPathRepo {
	return curriculum.NewLearningPathRepo(db, baseLog)
}

func NewGenerationCacheRepo(db *gorm.DB, baseLog *logger.Logger) GenerationCacheRepo {
	return generation.NewCacheRepo(db, baseLog)
}

func NewAICallLogRepo(db *gorm.DB, baseLog *logger.Logger) AICallLogRepo {
	return generation.NewAICallLogRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
