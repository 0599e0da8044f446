package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/hermes-backend/internal/config"
	httpH "github.com/yungbote/hermes-backend/internal/http/handlers"
	httpMW "github.com/yungbote/hermes-backend/internal/http/middleware"
	"github.com/yungbote/hermes-backend/internal/observability"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	CORS           config.CORSConfig
	Metrics        *observability.Metrics
	TracingEnabled bool
	ServiceName    string
	// RequestTimeout bounds each API request's context. Zero disables it.
	RequestTimeout time.Duration

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler     *httpH.HealthHandler
	CatalogHandler    *httpH.CatalogHandler
	SyllabusHandler   *httpH.SyllabusHandler
	GenerationHandler *httpH.GenerationHandler
	PathHandler       *httpH.PathHandler
	JobHandler        *httpH.JobHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.Observe(cfg.Log, cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORS))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	if cfg.RequestTimeout > 0 {
		api.Use(httpMW.RequestTimeout(cfg.RequestTimeout))
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Discipline catalog
		if cfg.CatalogHandler != nil {
			protected.GET("/disciplines/search", cfg.CatalogHandler.Search)
			protected.GET("/disciplines/browse", cfg.CatalogHandler.Browse)
			protected.GET("/disciplines/:id", cfg.CatalogHandler.Get)
		}

		// Syllabus + Course Grammar
		if cfg.SyllabusHandler != nil {
			protected.POST("/syllabi", cfg.SyllabusHandler.Create)
			protected.GET("/syllabi", cfg.SyllabusHandler.List)
			protected.GET("/syllabi/:id", cfg.SyllabusHandler.Get)
			protected.POST("/syllabi/:id/grammar", cfg.SyllabusHandler.Grammar)
		}

		// Pillars, resources, notes
		if cfg.GenerationHandler != nil {
			protected.POST("/pillars", cfg.GenerationHandler.Pillars)
			protected.POST("/resources", cfg.GenerationHandler.Resources)
			protected.POST("/notes", cfg.GenerationHandler.Notes)
		}

		// Mission Control
		if cfg.PathHandler != nil {
			protected.POST("/paths", cfg.PathHandler.Create)
			protected.GET("/paths", cfg.PathHandler.List)
			protected.GET("/paths/:id", cfg.PathHandler.Get)
			protected.POST("/paths/:id/steps/:key/toggle", cfg.PathHandler.ToggleStep)
			protected.POST("/paths/:id/steps/:key/complete", cfg.PathHandler.CompleteStep)
			protected.POST("/paths/:id/select-all", cfg.PathHandler.SelectAll)
			protected.POST("/paths/:id/deselect-all", cfg.PathHandler.DeselectAll)
			protected.POST("/paths/:id/confirm", cfg.PathHandler.Confirm)
			protected.POST("/paths/:id/edit", cfg.PathHandler.Edit)
		}

		// Job
		if cfg.JobHandler != nil {
			protected.GET("/jobs/:id", cfg.JobHandler.GetJob)
			protected.POST("/jobs/:id/cancel", cfg.JobHandler.CancelJob)
		}
	}

	return r
}
