package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type Repos struct {
	Discipline      repos.DisciplineRepo
	Syllabus        repos.SyllabusRepo
	LearningPath    repos.LearningPathRepo
	GenerationCache repos.GenerationCacheRepo
	AICallLog       repos.AICallLogRepo
	JobRun          repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Discipline:      repos.NewDisciplineRepo(db, log),
		Syllabus:        repos.NewSyllabusRepo(db, log),
		LearningPath:    repos.NewLearningPathRepo(db, log),
		GenerationCache: repos.NewGenerationCacheRepo(db, log),
		AICallLog:       repos.NewAICallLogRepo(db, log),
		JobRun:          repos.NewJobRunRepo(db, log),
	}
}
