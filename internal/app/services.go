package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/hermes-backend/internal/ai"
	"github.com/yungbote/hermes-backend/internal/ai/prompts"
	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/jobs/pipeline/path_materialize"
	jobruntime "github.com/yungbote/hermes-backend/internal/jobs/runtime"
	"github.com/yungbote/hermes-backend/internal/jobs/worker"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
	"github.com/yungbote/hermes-backend/internal/services"
)

type Services struct {
	Auth services.AuthService

	Catalog   services.CatalogService
	Syllabus  services.SyllabusService
	Grammar   services.GrammarService
	Pillars   services.PillarService
	Resources services.ResourceService
	Notes     services.NotesService
	Mission   services.MissionService

	// Job infra
	JobService  services.JobService
	JobRegistry *jobruntime.Registry
	JobWorker   *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg *config.Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	router := ai.NewRouter(log, clients.Providers, cfg.Providers, cfg.Generation, repos.AICallLog)
	promptCatalog := prompts.Default()
	cache := services.NewGenerationCache(log, repos.GenerationCache, clients.Redis, cfg.Generation, cfg.Redis.LockTTL)

	catalog := services.NewCatalogService(log, repos.Discipline)
	syllabi := services.NewSyllabusService(log, repos.Syllabus, catalog, router, promptCatalog, cache)
	grammar := services.NewGrammarService(log, syllabi, repos.Syllabus, router, promptCatalog, cache, cfg.Generation)
	pillars := services.NewPillarService(log, router, promptCatalog, cache)
	resources := services.NewResourceService(log, clients.YouTube, router, promptCatalog, cache)
	notes := services.NewNotesService(log, router, promptCatalog, cache)

	jobSvc := services.NewJobService(db, log, repos.JobRun)
	mission := services.NewMissionService(db, log, repos.LearningPath, syllabi, jobSvc)

	registry := jobruntime.NewRegistry()
	if err := registry.Register(path_materialize.New(log, repos.LearningPath, repos.Syllabus, resources, notes, cfg.Generation.SequenceDelay)); err != nil {
		return Services{}, fmt.Errorf("register path_materialize: %w", err)
	}
	var jobWorker *worker.Worker
	if cfg.Worker.Enabled {
		jobWorker = worker.NewWorker(log, repos.JobRun, registry, cfg.Worker)
	} else {
		log.Warn("Job worker disabled; queued jobs will wait for another process")
	}

	return Services{
		Auth:        services.NewAuthService(log, cfg.Auth),
		Catalog:     catalog,
		Syllabus:    syllabi,
		Grammar:     grammar,
		Pillars:     pillars,
		Resources:   resources,
		Notes:       notes,
		Mission:     mission,
		JobService:  jobSvc,
		JobRegistry: registry,
		JobWorker:   jobWorker,
	}, nil
}
