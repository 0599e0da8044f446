package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/domain/generation"
	"github.com/yungbote/hermes-backend/internal/observability"
	"github.com/yungbote/hermes-backend/internal/platform/apierr"
	"github.com/yungbote/hermes-backend/internal/platform/ctxutil"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

var ErrNoProvider = errors.New("no AI provider configured")

// Router sends a request to the providers configured for a task kind,
// falling through the list until one answers. Each provider sits behind
// its own circuit breaker so a failing backend is skipped quickly.
type Router struct {
	log       *logger.Logger
	providers map[string]Provider
	breakers  map[string]*gobreaker.CircuitBreaker
	order     func(kind string) []string
	timeout   time.Duration
	callLog   repos.AICallLogRepo
}

func NewRouter(log *logger.Logger, providers []Provider, pcfg config.ProvidersConfig, gcfg config.GenerationConfig, callLog repos.AICallLogRepo) *Router {
	r := &Router{
		log:       log.With("component", "AIRouter"),
		providers: map[string]Provider{},
		breakers:  map[string]*gobreaker.CircuitBreaker{},
		order:     pcfg.ProviderOrder,
		timeout:   gcfg.RequestTimeout,
		callLog:   callLog,
	}
	failures := gcfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		name := p.Name()
		r.providers[name] = p
		r.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     gcfg.BreakerCooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				r.log.Warn("provider breaker state change", "provider", name, "from", from.String(), "to", to.String())
				observability.Current().SetBreakerState(name, int(to))
			},
		})
	}
	return r
}

// Providers lists configured provider names.
func (r *Router) Providers() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	return out
}

// Chain returns the configured providers for kind, in order.
func (r *Router) Chain(kind string) []Provider {
	var out []Provider
	seen := map[string]bool{}
	for _, name := range r.order(kind) {
		if seen[name] {
			continue
		}
		seen[name] = true
		if p, ok := r.providers[name]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Complete tries each provider in the chain for kind. The last provider
// error is returned wrapped as an upstream failure when all of them fail.
func (r *Router) Complete(ctx context.Context, kind string, req Request) (*Response, error) {
	chain := r.Chain(kind)
	if len(chain) == 0 {
		return nil, apierr.Upstream("no_provider", fmt.Errorf("%w for %s", ErrNoProvider, kind))
	}

	ctx, span := observability.Tracer().Start(ctx, "ai.complete")
	defer span.End()
	span.SetAttributes(attribute.String("ai.kind", kind))

	var lastErr error
	for i, p := range chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := r.attempt(ctx, kind, i+1, p, req)
		if err == nil {
			span.SetAttributes(attribute.String("ai.provider", resp.Provider))
			return resp, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Warn("provider attempt failed", "kind", kind, "provider", p.Name(), "attempt", i+1, "error", err)
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "all providers failed")
	return nil, apierr.Upstream("generation_failed", lastErr)
}

func (r *Router) attempt(ctx context.Context, kind string, attempt int, p Provider, req Request) (*Response, error) {
	name := p.Name()
	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := r.breakers[name].Execute(func() (interface{}, error) {
		resp, err := p.Complete(callCtx, req)
		if err != nil {
			return nil, err
		}
		if resp == nil || resp.Text == "" {
			return nil, fmt.Errorf("%s returned an empty response", name)
		}
		return resp, nil
	})
	dur := time.Since(start)

	var resp *Response
	if err == nil {
		resp = out.(*Response)
		if resp.Provider == "" {
			resp.Provider = name
		}
	}
	r.record(ctx, kind, attempt, name, req, resp, err, dur)
	return resp, err
}

func (r *Router) record(ctx context.Context, kind string, attempt int, provider string, req Request, resp *Response, err error, dur time.Duration) {
	row := &generation.AICallLog{
		Kind:        kind,
		Provider:    provider,
		Attempt:     attempt,
		Success:     err == nil,
		PromptChars: len(req.System) + len(req.User),
		LatencyMS:   dur.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}
	if uid := ctxutil.UserID(ctx); uid != uuid.Nil {
		row.UserID = &uid
	}
	if resp != nil {
		row.Model = resp.Model
		row.OutputChars = len(resp.Text)
		row.InputTokens = resp.InputTokens
		row.OutputTokens = resp.OutputTokens
	}
	if err != nil {
		msg := err.Error()
		if len(msg) > 1000 {
			msg = msg[:1000]
		}
		row.Error = msg
	}
	observability.Current().ObserveLLMRequest(provider, kind, err == nil, dur, row.InputTokens, row.OutputTokens)

	if r.callLog == nil {
		return
	}
	// Write with a detached context so a canceled request still leaves a row.
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if lerr := r.callLog.Create(dbctx.Context{Ctx: logCtx}, row); lerr != nil {
		r.log.Warn("ai call log write failed", "kind", kind, "provider", provider, "error", lerr)
	}
}
