package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/hermes-backend/internal/ai"
	"github.com/yungbote/hermes-backend/internal/ai/aitest"
	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/data/repos/testutil"
	"github.com/yungbote/hermes-backend/internal/domain/generation"
)

// memRedis is an in-process stand-in for the shared redis. onLock runs
// before a lock is granted, outside the mutex.
type memRedis struct {
	mu     sync.Mutex
	vals   map[string][]byte
	locks  map[string]bool
	onLock func(key string)
}

func newMemRedis() *memRedis {
	return &memRedis{vals: map[string][]byte{}, locks: map[string]bool{}}
}

func (m *memRedis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *memRedis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = val
	return nil
}

func (m *memRedis) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vals, key)
	return nil
}

func (m *memRedis) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if m.onLock != nil {
		m.onLock(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return func() {}, false, nil
	}
	m.locks[key] = true
	return func() {
		m.mu.Lock()
		delete(m.locks, key)
		m.mu.Unlock()
	}, true, nil
}

func (m *memRedis) Close() error { return nil }

func newReplicaCache(t *testing.T, env *testEnv, redis *memRedis) GenerationCache {
	db := testutil.DB(t)
	return NewGenerationCache(env.log, repos.NewGenerationCacheRepo(db, env.log), redis, env.gen, time.Second)
}

func TestGenerationCacheDoReadsEntryStoredByAnotherReplica(t *testing.T) {
	env := newTestEnv(t)
	redis := newMemRedis()
	replicaA := newReplicaCache(t, env, redis)
	replicaB := newReplicaCache(t, env, redis)
	ctx := context.Background()
	key := replicaA.Key(generation.KindNotes, "Go", "Maps")

	// Replica B finishes generating just before A gets the lock.
	redis.onLock = func(string) {
		redis.onLock = nil
		assert.NoError(t, replicaB.Put(ctx, generation.KindNotes, key, []byte(`{"markdown":"from b"}`), generation.Meta{Provider: "claude"}))
	}

	calls := 0
	e, err := replicaA.Do(ctx, generation.KindNotes, key, false, func(ctx context.Context) (*CacheEntry, error) {
		calls++
		return &CacheEntry{Payload: json.RawMessage(`{"markdown":"from a"}`)}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
	assert.JSONEq(t, `{"markdown":"from b"}`, string(e.Payload))
	assert.Equal(t, "claude", e.Provider)

	e, err = replicaA.Do(ctx, generation.KindNotes, key, true, func(ctx context.Context) (*CacheEntry, error) {
		calls++
		return &CacheEntry{Payload: json.RawMessage(`{"markdown":"from a"}`)}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "force regenerates")
	assert.JSONEq(t, `{"markdown":"from a"}`, string(e.Payload))
}

func TestNotesGenerateCoalescesConcurrentRequests(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fake := &aitest.Fake{
		ProviderName: "gemini",
		Fn: func(ctx context.Context, req ai.Request) (*ai.Response, error) {
			once.Do(func() { close(started) })
			<-release
			return &ai.Response{Text: "# Maps\n\nKeys and values.", Model: "gemini-test"}, nil
		},
	}
	env := newTestEnv(t, fake)
	svc := NewNotesService(env.log, env.router, env.prompts, env.cache)
	ctx := userCtx(uuid.New())

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	markdown := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			notes, err := svc.Generate(ctx, GenerateNotesInput{Topic: "Go", StepTitle: "Maps"})
			errs[i] = err
			if notes != nil {
				markdown[i] = notes.Markdown
			}
		}(i)
	}

	<-started
	close(release)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "# Maps\n\nKeys and values.", markdown[i])
	}
	assert.Len(t, fake.Calls(), 1)
}
