package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	redisclient "github.com/yungbote/hermes-backend/internal/clients/redis"
	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/domain/generation"
	"github.com/yungbote/hermes-backend/internal/observability"
	"github.com/yungbote/hermes-backend/internal/platform/ctxutil"
	"github.com/yungbote/hermes-backend/internal/platform/dbctx"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

// CacheEntry is a cached payload and who produced it.
type CacheEntry struct {
	Payload  json.RawMessage `json:"payload"`
	Provider string          `json:"provider,omitempty"`
	Model    string          `json:"model,omitempty"`
}

// GenerationCache stores generated payloads in generation_cache with an
// optional redis front, and coalesces concurrent generation of one key.
type GenerationCache interface {
	Key(kind generation.Kind, parts ...string) string
	PromptVersion() string
	TTL(kind generation.Kind) time.Duration
	Get(ctx context.Context, kind generation.Kind, key string) (*CacheEntry, error)
	Put(ctx context.Context, kind generation.Kind, key string, payload []byte, meta generation.Meta) error
	// Do runs fn once per (kind, key) across concurrent callers in this
	// process and, with redis configured, across replicas: whoever takes
	// the lock second reads the first one's entry unless force is set.
	Do(ctx context.Context, kind generation.Kind, key string, force bool, fn func(ctx context.Context) (*CacheEntry, error)) (*CacheEntry, error)
}

type generationCache struct {
	log     *logger.Logger
	repo    repos.GenerationCacheRepo
	redis   redisclient.Cache
	cfg     config.GenerationConfig
	lockTTL time.Duration
	version string
	group   singleflight.Group
}

func NewGenerationCache(baseLog *logger.Logger, repo repos.GenerationCacheRepo, redis redisclient.Cache, cfg config.GenerationConfig, lockTTL time.Duration) GenerationCache {
	version := strings.TrimSpace(cfg.PromptVersion)
	if version == "" {
		version = "v1"
	}
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &generationCache{
		log:     baseLog.With("service", "GenerationCache"),
		repo:    repo,
		redis:   redis,
		cfg:     cfg,
		lockTTL: lockTTL,
		version: version,
	}
}

func (c *generationCache) PromptVersion() string { return c.version }

// Key hashes the normalized parts together with kind and prompt version.
func (c *generationCache) Key(kind generation.Kind, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(string(kind)))
	h.Write([]byte{0})
	h.Write([]byte(c.version))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *generationCache) TTL(kind generation.Kind) time.Duration {
	switch kind {
	case generation.KindSyllabus:
		return c.cfg.SyllabusTTL
	case generation.KindResources:
		return c.cfg.ResourcesTTL
	case generation.KindNotes:
		return c.cfg.NotesTTL
	case generation.KindPillars:
		return c.cfg.PillarsTTL
	case generation.KindGrammar:
		return c.cfg.GrammarTTL
	}
	return 0
}

func redisKey(kind generation.Kind, key string) string {
	return "gen:" + string(kind) + ":" + key
}

func (c *generationCache) Get(ctx context.Context, kind generation.Kind, key string) (*CacheEntry, error) {
	m := observability.Current()
	if c.redis != nil {
		raw, ok, err := c.redis.Get(ctx, redisKey(kind, key))
		if err != nil {
			c.log.Warn("redis cache read failed", "kind", kind, "error", err)
		} else if ok {
			var e CacheEntry
			if err := json.Unmarshal(raw, &e); err == nil && len(e.Payload) > 0 {
				m.ObserveCacheLookup(string(kind), "redis", true)
				return &e, nil
			}
		}
		m.ObserveCacheLookup(string(kind), "redis", false)
	}

	row, err := c.repo.Get(dbctx.Context{Ctx: ctx}, kind, key)
	if err != nil {
		return nil, fmt.Errorf("read generation cache: %w", err)
	}
	now := time.Now().UTC()
	if row == nil || row.Expired(now) || len(row.Payload) == 0 {
		m.ObserveCacheLookup(string(kind), "db", false)
		return nil, nil
	}
	m.ObserveCacheLookup(string(kind), "db", true)
	e := &CacheEntry{Payload: json.RawMessage(row.Payload), Provider: row.Provider, Model: row.Model}

	if c.redis != nil {
		ttl := time.Duration(0)
		if row.ExpiresAt != nil {
			ttl = row.ExpiresAt.Sub(now)
		}
		c.writeRedis(ctx, kind, key, e, ttl)
	}
	return e, nil
}

func (c *generationCache) Put(ctx context.Context, kind generation.Kind, key string, payload []byte, meta generation.Meta) error {
	if meta.PromptVersion == "" {
		meta.PromptVersion = c.version
	}
	if meta.TTL == 0 {
		meta.TTL = c.TTL(kind)
	}
	row := &generation.Cache{
		Kind:          kind,
		CacheKey:      key,
		Payload:       datatypes.JSON(payload),
		Provider:      meta.Provider,
		Model:         meta.Model,
		PromptVersion: meta.PromptVersion,
	}
	if meta.TTL > 0 {
		exp := time.Now().UTC().Add(meta.TTL)
		row.ExpiresAt = &exp
	}
	if err := c.repo.Upsert(dbctx.Context{Ctx: ctx}, row); err != nil {
		return fmt.Errorf("write generation cache: %w", err)
	}
	if c.redis != nil {
		c.writeRedis(ctx, kind, key, &CacheEntry{Payload: payload, Provider: meta.Provider, Model: meta.Model}, meta.TTL)
	}
	return nil
}

func (c *generationCache) writeRedis(ctx context.Context, kind generation.Kind, key string, e *CacheEntry, ttl time.Duration) {
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, redisKey(kind, key), raw, ttl); err != nil {
		c.log.Warn("redis cache write failed", "kind", kind, "error", err)
	}
}

func (c *generationCache) Do(ctx context.Context, kind generation.Kind, key string, force bool, fn func(ctx context.Context) (*CacheEntry, error)) (*CacheEntry, error) {
	flightKey := string(kind) + ":" + key
	// The shared call outlives any single caller so the result still lands
	// in the cache when the first requester goes away.
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		release := c.lock(detached, kind, key)
		defer release()
		if !force {
			// An earlier flight or another replica may have stored it since
			// the caller's lookup.
			if e, err := c.Get(detached, kind, key); err == nil && e != nil {
				return e, nil
			}
		}
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*CacheEntry), nil
	}
}

// lock takes the cross-replica generation lock when redis is configured.
// A lock held elsewhere is waited on briefly; generation proceeds either way.
func (c *generationCache) lock(ctx context.Context, kind generation.Kind, key string) func() {
	if c.redis == nil {
		return func() {}
	}
	lockKey := redisKey(kind, key)
	deadline := time.Now().Add(c.lockTTL)
	for {
		release, ok, err := c.redis.TryLock(ctx, lockKey, c.lockTTL)
		if err != nil {
			c.log.Warn("redis lock failed", "kind", kind, "error", err)
			return func() {}
		}
		if ok {
			return release
		}
		if time.Now().After(deadline) {
			return func() {}
		}
		select {
		case <-ctx.Done():
			return func() {}
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// cachedGenerate serves kind/key from the cache unless force is set, and
// otherwise runs gen once, storing its result. The bool reports a hit.
func cachedGenerate[T any](ctx context.Context, log *logger.Logger, cache GenerationCache, kind generation.Kind, key string, force bool, gen func(ctx context.Context) (T, generation.Meta, error)) (T, *CacheEntry, bool, error) {
	var zero T
	if !force {
		e, err := cache.Get(ctx, kind, key)
		if err != nil {
			log.Warn("generation cache lookup failed", "kind", kind, "error", err)
		} else if e != nil {
			var v T
			if err := json.Unmarshal(e.Payload, &v); err == nil {
				ctxutil.RecordGeneration(ctx, ctxutil.Generation{Kind: string(kind), Cached: true, Provider: e.Provider})
				return v, e, true, nil
			}
			log.Warn("cached payload did not decode; regenerating", "kind", kind)
		}
	}

	e, err := cache.Do(ctx, kind, key, force, func(ctx context.Context) (*CacheEntry, error) {
		v, meta, err := gen(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if err := cache.Put(ctx, kind, key, raw, meta); err != nil {
			log.Warn("generation cache write failed", "kind", kind, "error", err)
		}
		return &CacheEntry{Payload: raw, Provider: meta.Provider, Model: meta.Model}, nil
	})
	if err != nil {
		return zero, nil, false, err
	}
	var v T
	if err := json.Unmarshal(e.Payload, &v); err != nil {
		return zero, nil, false, fmt.Errorf("decode generated %s: %w", kind, err)
	}
	ctxutil.RecordGeneration(ctx, ctxutil.Generation{Kind: string(kind), Provider: e.Provider})
	return v, e, false, nil
}
