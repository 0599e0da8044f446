package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	CORS       CORSConfig       `yaml:"cors"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Generation GenerationConfig `yaml:"generation"`
	Worker     WorkerConfig     `yaml:"worker"`
	Otel       OtelConfig       `yaml:"otel"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"180s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"               env:"DATABASE_DSN"`
	Host            string        `yaml:"host"              env:"POSTGRES_HOST"              env-default:"localhost"`
	Port            int           `yaml:"port"              env:"POSTGRES_PORT"              env-default:"5432"`
	User            string        `yaml:"user"              env:"POSTGRES_USER"              env-default:"postgres"`
	Password        string        `yaml:"password"          env:"POSTGRES_PASSWORD"`
	Name            string        `yaml:"name"              env:"POSTGRES_NAME"              env-default:"hermes"`
	MaxOpenConns    int           `yaml:"max_open_conns"    env:"DATABASE_MAX_OPEN_CONNS"    env-default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns"    env:"DATABASE_MAX_IDLE_CONNS"    env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME" env-default:"1h"`
	SlowThreshold   time.Duration `yaml:"slow_threshold"    env:"DATABASE_SLOW_THRESHOLD"    env-default:"1s"`
}

// RedisConfig is optional; an empty Addr disables the redis cache front.
type RedisConfig struct {
	Addr      string        `yaml:"addr"       env:"REDIS_ADDR"`
	Password  string        `yaml:"password"   env:"REDIS_PASSWORD"`
	DB        int           `yaml:"db"         env:"REDIS_DB"         env-default:"0"`
	KeyPrefix string        `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"hermes:"`
	LockTTL   time.Duration `yaml:"lock_ttl"   env:"REDIS_LOCK_TTL"   env-default:"2m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Mode     string `yaml:"mode"      env:"LOG_MODE"              env-default:"development"`
	Level    string `yaml:"level"     env:"LOG_LEVEL"             env-default:"debug"`
	Redact   bool   `yaml:"redact"    env:"LOG_REDACTION_ENABLED" env-default:"true"`
	HashSalt string `yaml:"hash_salt" env:"LOG_HASH_SALT"`
}

// AuthConfig configures bearer token verification. Tokens are issued elsewhere.
type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret"   env:"AUTH_JWT_SECRET"`
	JWTIssuer   string `yaml:"jwt_issuer"   env:"AUTH_JWT_ISSUER"`
	JWTAudience string `yaml:"jwt_audience" env:"AUTH_JWT_AUDIENCE" env-default:"authenticated"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string        `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000"`
	AllowCredentials bool          `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           time.Duration `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"12h"`
}

// Origins splits AllowedOrigins on commas.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// ProvidersConfig holds credentials and models for the AI and search providers.
type ProvidersConfig struct {
	Perplexity PerplexityConfig `yaml:"perplexity"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Claude     ClaudeConfig     `yaml:"claude"`
	YouTube    YouTubeConfig    `yaml:"youtube"`

	// Order lists provider names per task kind, e.g. "syllabus=perplexity,gemini".
	Order map[string]string `yaml:"order" env:"PROVIDER_ORDER" env-separator:";"`
}

type PerplexityConfig struct {
	APIKey     string        `yaml:"api_key"     env:"PERPLEXITY_API_KEY"`
	BaseURL    string        `yaml:"base_url"    env:"PERPLEXITY_BASE_URL"    env-default:"https://api.perplexity.ai"`
	Model      string        `yaml:"model"       env:"PERPLEXITY_MODEL"       env-default:"sonar-pro"`
	Timeout    time.Duration `yaml:"timeout"     env:"PERPLEXITY_TIMEOUT"     env-default:"120s"`
	MaxRetries int           `yaml:"max_retries" env:"PERPLEXITY_MAX_RETRIES" env-default:"3"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model  string `yaml:"model"   env:"GEMINI_MODEL"   env-default:"gemini-2.5-flash"`
}

type ClaudeConfig struct {
	APIKey  string `yaml:"api_key"  env:"CLAUDE_API_KEY"`
	BaseURL string `yaml:"base_url" env:"CLAUDE_BASE_URL"`
	Model   string `yaml:"model"    env:"CLAUDE_MODEL"    env-default:"claude-sonnet-4-5"`
}

type YouTubeConfig struct {
	APIKey     string `yaml:"api_key"     env:"YOUTUBE_API_KEY"`
	MaxResults int64  `yaml:"max_results" env:"YOUTUBE_MAX_RESULTS" env-default:"8"`
}

// GenerationConfig tunes caching and call sequencing for generated content.
type GenerationConfig struct {
	PromptVersion    string        `yaml:"prompt_version"     env:"GEN_PROMPT_VERSION"     env-default:"v3"`
	SyllabusTTL      time.Duration `yaml:"syllabus_ttl"       env:"GEN_SYLLABUS_TTL"       env-default:"720h"`
	ResourcesTTL     time.Duration `yaml:"resources_ttl"      env:"GEN_RESOURCES_TTL"      env-default:"168h"`
	NotesTTL         time.Duration `yaml:"notes_ttl"          env:"GEN_NOTES_TTL"          env-default:"720h"`
	PillarsTTL       time.Duration `yaml:"pillars_ttl"        env:"GEN_PILLARS_TTL"        env-default:"720h"`
	GrammarTTL       time.Duration `yaml:"grammar_ttl"        env:"GEN_GRAMMAR_TTL"        env-default:"720h"`
	SequenceDelay    time.Duration `yaml:"sequence_delay"     env:"GEN_SEQUENCE_DELAY"     env-default:"1500ms"`
	BreakerFailures  uint32        `yaml:"breaker_failures"   env:"GEN_BREAKER_FAILURES"   env-default:"5"`
	BreakerCooldown  time.Duration `yaml:"breaker_cooldown"   env:"GEN_BREAKER_COOLDOWN"   env-default:"30s"`
	RequestTimeout   time.Duration `yaml:"request_timeout"    env:"GEN_REQUEST_TIMEOUT"    env-default:"150s"`
	GrammarPassScore int           `yaml:"grammar_pass_score" env:"GEN_GRAMMAR_PASS_SCORE" env-default:"70"`
}

// WorkerConfig controls the job_run worker pool.
type WorkerConfig struct {
	Enabled      bool          `yaml:"enabled"       env:"WORKER_ENABLED"       env-default:"true"`
	Concurrency  int           `yaml:"concurrency"   env:"WORKER_CONCURRENCY"   env-default:"2"`
	PollInterval time.Duration `yaml:"poll_interval" env:"WORKER_POLL_INTERVAL" env-default:"1s"`
	MaxAttempts  int           `yaml:"max_attempts"  env:"WORKER_MAX_ATTEMPTS"  env-default:"5"`
	RetryDelay   time.Duration `yaml:"retry_delay"   env:"WORKER_RETRY_DELAY"   env-default:"30s"`
	StaleRunning time.Duration `yaml:"stale_running" env:"WORKER_STALE_RUNNING" env-default:"30m"`
	Heartbeat    time.Duration `yaml:"heartbeat"     env:"WORKER_HEARTBEAT"     env-default:"15s"`
}

// OtelConfig toggles tracing.
type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"      env:"OTEL_ENABLED"                env-default:"false"`
	ServiceName string  `yaml:"service_name" env:"OTEL_SERVICE_NAME"           env-default:"hermes"`
	Environment string  `yaml:"environment"  env:"OTEL_ENVIRONMENT"            env-default:"dev"`
	Endpoint    string  `yaml:"endpoint"     env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `yaml:"insecure"     env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"false"`
	SampleRatio float64 `yaml:"sample_ratio" env:"OTEL_SAMPLER_RATIO"          env-default:"0.1"`
}

// MetricsConfig toggles the Prometheus text endpoint at GET /metrics.
type MetricsConfig struct {
	Enabled       bool          `yaml:"enabled"        env:"METRICS_ENABLED"        env-default:"false"`
	QueueInterval time.Duration `yaml:"queue_interval" env:"METRICS_QUEUE_INTERVAL" env-default:"15s"`
}

// ProviderOrder returns the configured provider names for a task kind.
func (c ProvidersConfig) ProviderOrder(kind string) []string {
	raw, ok := c.Order[kind]
	if !ok || strings.TrimSpace(raw) == "" {
		raw = defaultOrder[kind]
	}
	if strings.TrimSpace(raw) == "" {
		raw = defaultOrder["default"]
	}
	var out []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			out = append(out, name)
		}
	}
	return out
}

var defaultOrder = map[string]string{
	"syllabus":  "perplexity,claude,gemini",
	"resources": "perplexity,gemini",
	"pillars":   "gemini,claude,perplexity",
	"grammar":   "claude,gemini,perplexity",
	"notes":     "gemini,claude,perplexity",
	"default":   "gemini,claude,perplexity",
}
