package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	CategoryURL  string        `envconfig:"CATEGORY_URL" default:"https://books.toscrape.com/catalogue/category/books/travel_2/index.html"`
	UserAgent    string        `envconfig:"USER_AGENT" default:"Mozilla/5.0"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	ItemDelay    time.Duration `envconfig:"ITEM_DELAY" default:"100ms"`
	MaxPages     int           `envconfig:"MAX_PAGES" default:"1"`

	EnrichDelay      time.Duration `envconfig:"ENRICH_DELAY" default:"250ms"`
	EnrichMaxRetries int           `envconfig:"ENRICH_MAX_RETRIES" default:"2"`
	OpenAIKey        string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `envconfig:"OPENAI_BASE_URL"`
	OpenAIModel      string        `envconfig:"OPENAI_MODEL" default:"gpt-4o"`

	DatabaseURL string        `envconfig:"DATABASE_URL"`
	RedisURL    string        `envconfig:"REDIS_URL"`
	CacheTTL    time.Duration `envconfig:"CACHE_TTL" default:"24h"`

	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`
	OutputCSV   string `envconfig:"OUTPUT_CSV" default:"books_with_summaries.csv"`
	APIPort     string `envconfig:"API_PORT" default:"8080"`

	APIRateRequests int           `envconfig:"API_RATE_REQUESTS" default:"60"`
	APIRateInterval time.Duration `envconfig:"API_RATE_INTERVAL" default:"1m"`
}

// Load reads .env files (project root first, then the working directory)
// and overlays the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	if cfg.EnrichMaxRetries < 0 {
		return nil, fmt.Errorf("ENRICH_MAX_RETRIES must be >= 0, got %d", cfg.EnrichMaxRetries)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment != "production"
}

func (c *Config) EnrichmentEnabled() bool {
	return c.OpenAIKey != ""
}
