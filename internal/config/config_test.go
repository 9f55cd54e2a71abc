package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://books.toscrape.com/catalogue/category/books/travel_2/index.html", cfg.CategoryURL)
	assert.Equal(t, "Mozilla/5.0", cfg.UserAgent)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.ItemDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.EnrichDelay)
	assert.Equal(t, 2, cfg.EnrichMaxRetries)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, 1, cfg.MaxPages)
	assert.Equal(t, 60, cfg.APIRateRequests)
	assert.Equal(t, time.Minute, cfg.APIRateInterval)
	assert.False(t, cfg.EnrichmentEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CATEGORY_URL", "https://example.com/cat/index.html")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "https://proxy.example.com/v1")
	t.Setenv("ITEM_DELAY", "0s")
	t.Setenv("ENRICH_MAX_RETRIES", "4")
	t.Setenv("MAX_PAGES", "0")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/cat/index.html", cfg.CategoryURL)
	assert.Equal(t, "https://proxy.example.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, time.Duration(0), cfg.ItemDelay)
	assert.Equal(t, 4, cfg.EnrichMaxRetries)
	assert.Equal(t, 1, cfg.MaxPages)
	assert.True(t, cfg.EnrichmentEnabled())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadRejectsNegativeRetries(t *testing.T) {
	t.Setenv("ENRICH_MAX_RETRIES", "-1")

	_, err := Load()
	require.Error(t, err)
}
