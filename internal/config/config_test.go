package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  dsn: postgres://u:p@db:5432/hermes
generation:
  sequence_delay: 2s
providers:
  order:
    syllabus: gemini,perplexity
`), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("WORKER_CONCURRENCY", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Worker.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.Generation.SequenceDelay)
	assert.Equal(t, "postgres://u:p@db:5432/hermes", cfg.Database.PostgresDSN())
	assert.Equal(t, []string{"gemini", "perplexity"}, cfg.Providers.ProviderOrder("syllabus"))
	assert.Equal(t, []string{"gemini", "claude", "perplexity"}, cfg.Providers.ProviderOrder("notes"))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.Error(t, err)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := Config{
		Server:     ServerConfig{Port: 8080},
		Database:   DatabaseConfig{Host: "localhost"},
		Worker:     WorkerConfig{Concurrency: 1, MaxAttempts: 3},
		Generation: GenerationConfig{GrammarPassScore: 70},
		Providers:  ProvidersConfig{Order: map[string]string{"notes": "gemini,openai"}},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "openai"`)
}

func TestCORSOrigins(t *testing.T) {
	c := CORSConfig{AllowedOrigins: " http://a.test , ,http://b.test"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.Origins())
}

func TestPostgresDSNFromParts(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, User: "hermes", Password: "p@ss", Name: "cat"}
	assert.Equal(t, "postgres://hermes:p%40ss@db:5433/cat?sslmode=disable", d.PostgresDSN())
}
