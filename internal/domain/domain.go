package domain

import (
	"github.com/yungbote/hermes-backend/internal/domain/catalog"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
	"github.com/yungbote/hermes-backend/internal/domain/generation"
	"github.com/yungbote/hermes-backend/internal/domain/jobs"
)

type (
	Discipline = catalog.Discipline
	BrowseNode = catalog.BrowseNode
	SearchHit  = catalog.SearchHit

	Syllabus        = curriculum.Syllabus
	SyllabusContent = curriculum.SyllabusContent
	LearningPath    = curriculum.LearningPath
	PathStep        = curriculum.PathStep
	Pillar          = curriculum.Pillar
	Resource        = curriculum.Resource
	ResourceSet     = curriculum.ResourceSet
	Notes           = curriculum.Notes

	GenerationCache = generation.Cache
	AICallLog       = generation.AICallLog

	JobRun = jobs.JobRun
)

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{
		&catalog.Discipline{},
		&curriculum.Syllabus{},
		&curriculum.LearningPath{},
		&generation.Cache{},
		&generation.AICallLog{},
		&jobs.JobRun{},
	}
}
