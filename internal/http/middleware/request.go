package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/hermes-backend/internal/observability"
	"github.com/yungbote/hermes-backend/internal/platform/ctxutil"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// Observe is the per-request envelope: it assigns request and trace ids,
// collects which generations the handler served and whether they came
// from the cache, then reports the request to the log, metrics and the
// active span.
func Observe(log *logger.Logger, m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)

		td := &ctxutil.TraceData{RequestID: strings.TrimSpace(c.GetHeader(headerRequestID))}
		if td.RequestID == "" {
			td.RequestID = uuid.NewString()
		}
		td.TraceID = strings.TrimSpace(c.GetHeader(headerTraceID))
		if sc := span.SpanContext(); td.TraceID == "" && sc.HasTraceID() {
			td.TraceID = sc.TraceID().String()
		}
		if td.TraceID == "" {
			td.TraceID = uuid.NewString()
		}
		ctx = ctxutil.WithTraceData(ctx, td)
		ctx, gens := ctxutil.WithGenerationLog(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(headerTraceID, td.TraceID)
		c.Writer.Header().Set(headerRequestID, td.RequestID)

		m.ApiInflightInc()
		defer m.ApiInflightDec()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		m.ObserveAPI(c.Request.Method, route, status, elapsed)

		userID := ctxutil.UserID(c.Request.Context())
		served := gens.Entries()

		span.SetAttributes(attribute.String("hermes.request_id", td.RequestID))
		if userID != uuid.Nil {
			span.SetAttributes(attribute.String("hermes.user_id", userID.String()))
		}

		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", td.RequestID,
			"trace_id", td.TraceID,
		}
		if userID != uuid.Nil {
			fields = append(fields, "user_id", userID.String())
		}
		if len(served) > 0 {
			kinds := make([]string, 0, len(served))
			cached := 0
			for _, g := range served {
				kinds = append(kinds, g.Kind)
				if g.Cached {
					cached++
				}
				m.ObserveGeneration(g.Kind, g.Cached)
			}
			// Handlers serve one artifact per request; the last one names the provider.
			last := served[len(served)-1]
			fields = append(fields,
				"generation", strings.Join(kinds, ","),
				"cache_hit", cached == len(served),
				"provider", last.Provider,
			)
			span.SetAttributes(
				attribute.StringSlice("hermes.generation.kinds", kinds),
				attribute.Bool("hermes.generation.cache_hit", cached == len(served)),
				attribute.String("hermes.generation.provider", last.Provider),
			)
		}

		if log == nil {
			return
		}
		switch {
		case status >= 500:
			log.Error("request served", fields...)
		case status >= 400:
			log.Warn("request served", fields...)
		default:
			log.Info("request served", fields...)
		}
	}
}
