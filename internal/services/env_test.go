package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/hermes-backend/internal/ai"
	"github.com/yungbote/hermes-backend/internal/ai/prompts"
	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/data/repos"
	"github.com/yungbote/hermes-backend/internal/data/repos/testutil"
	"github.com/yungbote/hermes-backend/internal/platform/ctxutil"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

type testEnv struct {
	db      *gorm.DB
	log     *logger.Logger
	router  *ai.Router
	cache   GenerationCache
	prompts *prompts.Catalog
	gen     config.GenerationConfig
}

func newTestEnv(t *testing.T, providers ...ai.Provider) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	gen := config.GenerationConfig{
		PromptVersion:    "v3",
		SyllabusTTL:      time.Hour,
		ResourcesTTL:     time.Hour,
		NotesTTL:         time.Hour,
		PillarsTTL:       time.Hour,
		GrammarTTL:       time.Hour,
		BreakerFailures:  5,
		BreakerCooldown:  time.Minute,
		RequestTimeout:   5 * time.Second,
		GrammarPassScore: 70,
	}
	return &testEnv{
		db:      db,
		log:     log,
		router:  ai.NewRouter(log, providers, config.ProvidersConfig{}, gen, repos.NewAICallLogRepo(db, log)),
		cache:   NewGenerationCache(log, repos.NewGenerationCacheRepo(db, log), nil, gen, 0),
		prompts: prompts.Default(),
		gen:     gen,
	}
}

func userCtx(userID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
}
