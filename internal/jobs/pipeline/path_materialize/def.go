package path_materialize

import (
	"time"

	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
	"github.com/yungbote/hermes-backend/internal/services"
)

type Pipeline struct {
	log       *logger.Logger
	paths     repos.LearningPathRepo
	syllabi   repos.SyllabusRepo
	resources services.ResourceService
	notes     services.NotesService
	delay     time.Duration
}

// New builds the handler. delay is the pause between consecutive provider calls.
func New(
	baseLog *logger.Logger,
	paths repos.LearningPathRepo,
	syllabi repos.SyllabusRepo,
	resources services.ResourceService,
	notes services.NotesService,
	delay time.Duration,
) *Pipeline {
	return &Pipeline{
		log:       baseLog.With("job", services.JobTypePathMaterialize),
		paths:     paths,
		syllabi:   syllabi,
		resources: resources,
		notes:     notes,
		delay:     delay,
	}
}

func (p *Pipeline) Type() string { return services.JobTypePathMaterialize }
