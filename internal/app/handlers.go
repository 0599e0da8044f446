package app

import (
	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/http"
	httpH "github.com/yungbote/hermes-backend/internal/http/handlers"
	httpMW "github.com/yungbote/hermes-backend/internal/http/middleware"
	"github.com/yungbote/hermes-backend/internal/observability"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Catalog    *httpH.CatalogHandler
	Syllabus   *httpH.SyllabusHandler
	Generation *httpH.GenerationHandler
	Path       *httpH.PathHandler
	Job        *httpH.JobHandler
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		Catalog:    httpH.NewCatalogHandler(services.Catalog),
		Syllabus:   httpH.NewSyllabusHandler(services.Syllabus, services.Grammar),
		Generation: httpH.NewGenerationHandler(services.Pillars, services.Resources, services.Notes),
		Path:       httpH.NewPathHandler(log, services.Mission),
		Job:        httpH.NewJobHandler(services.JobService),
	}
}

func wireRouterConfig(log *logger.Logger, cfg *config.Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) http.RouterConfig {
	return http.RouterConfig{
		Log:               log,
		CORS:              cfg.CORS,
		Metrics:           metrics,
		TracingEnabled:    cfg.Otel.Enabled,
		ServiceName:       cfg.Otel.ServiceName,
		RequestTimeout:    cfg.Server.WriteTimeout,
		AuthMiddleware:    middleware.Auth,
		HealthHandler:     handlers.Health,
		CatalogHandler:    handlers.Catalog,
		SyllabusHandler:   handlers.Syllabus,
		GenerationHandler: handlers.Generation,
		PathHandler:       handlers.Path,
		JobHandler:        handlers.Job,
	}
}
