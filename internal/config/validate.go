package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var knownProviders = map[string]bool{"perplexity": true, "gemini": true, "claude": true}

// Validate checks cross-field constraints cleanenv tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Database.DSN == "" && c.Database.Host == "" {
		errs = append(errs, errors.New("database: dsn or host required"))
	}
	if c.Worker.Concurrency < 1 {
		c.Worker.Concurrency = 1
	}
	if c.Worker.MaxAttempts < 1 {
		errs = append(errs, errors.New("worker.max_attempts must be >= 1"))
	}
	if c.Generation.SequenceDelay < 0 {
		errs = append(errs, errors.New("generation.sequence_delay must be >= 0"))
	}
	if c.Generation.GrammarPassScore < 0 || c.Generation.GrammarPassScore > 100 {
		errs = append(errs, fmt.Errorf("generation.grammar_pass_score out of range: %d", c.Generation.GrammarPassScore))
	}
	if c.Otel.SampleRatio < 0 || c.Otel.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("otel.sample_ratio out of range: %v", c.Otel.SampleRatio))
	}
	if base := strings.TrimSpace(c.Providers.Perplexity.BaseURL); base != "" {
		if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("providers.perplexity.base_url invalid: %q", base))
		}
	}
	for kind := range c.Providers.Order {
		for _, name := range c.Providers.ProviderOrder(kind) {
			if !knownProviders[name] {
				errs = append(errs, fmt.Errorf("providers.order[%s]: unknown provider %q", kind, name))
			}
		}
	}
	return errors.Join(errs...)
}

// PostgresDSN returns the explicit DSN or one assembled from parts.
func (d DatabaseConfig) PostgresDSN() string {
	if strings.TrimSpace(d.DSN) != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
	)
}
