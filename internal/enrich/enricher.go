// Package enrich asks a language model for a catalog summary plus a clean
// price and numeric rating, retrying on bad output and falling back to the
// local normalizer when the model cannot deliver.
package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"catalogscout/internal/model"
	"catalogscout/internal/observability"
)

const (
	DefaultModel       = "gpt-4o"
	DefaultBackoffUnit = 600 * time.Millisecond

	temperature     = 0.2
	maxOutputTokens = 150
	cacheKeyPrefix  = "enrich:v1:"
)

// ChatCompleter is satisfied by *openai.Client.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAIClient builds a client for the OpenAI API or any compatible proxy
// when baseURL is set.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

type Enricher struct {
	client      ChatCompleter
	model       string
	cache       Cache
	backoffUnit time.Duration
	sleep       func(context.Context, time.Duration) error
	logger      *zap.Logger
	metrics     *observability.Metrics
}

type Option func(*Enricher)

func WithModel(name string) Option {
	return func(e *Enricher) {
		if name != "" {
			e.model = name
		}
	}
}

func WithCache(c Cache) Option {
	return func(e *Enricher) {
		e.cache = c
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(e *Enricher) {
		e.metrics = m
	}
}

// WithBackoffUnit sets the linear backoff step; attempt n waits n*unit.
func WithBackoffUnit(d time.Duration) Option {
	return func(e *Enricher) {
		e.backoffUnit = d
	}
}

// New returns an Enricher. A nil client yields fallback-only enrichment.
func New(client ChatCompleter, logger *zap.Logger, opts ...Option) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Enricher{
		client:      client,
		model:       DefaultModel,
		backoffUnit: DefaultBackoffUnit,
		sleep:       sleepContext,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich makes up to maxRetries+1 model calls. It always returns usable
// fields: whatever the model got wrong is derived locally instead.
func (e *Enricher) Enrich(ctx context.Context, rec model.RawRecord, maxRetries int) model.EnrichedFields {
	if e.client == nil {
		e.metrics.EnrichOutcome(observability.SourceFallback)
		return Fallback(rec)
	}

	key := e.cacheKey(rec)
	if e.cache != nil && key != "" {
		if fields, ok := e.cache.Get(ctx, key); ok {
			e.metrics.EnrichOutcome(observability.SourceCache)
			return fields
		}
	}

	prompt, err := UserPrompt(rec)
	if err != nil {
		e.logger.Error("build prompt", zap.Error(err))
		e.metrics.EnrichOutcome(observability.SourceFallback)
		return Fallback(rec)
	}
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxOutputTokens,
	}

	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		text, err := e.complete(ctx, req)
		if err == nil {
			switch reply := parseReply(text).(type) {
			case validReply:
				e.metrics.EnrichAttempt(observability.AttemptOK)
				fields := reply.fields(rec)
				if e.cache != nil && key != "" {
					e.cache.Set(ctx, key, fields)
				}
				e.metrics.EnrichOutcome(observability.SourceModel)
				return fields
			case malformedReply:
				e.metrics.EnrichAttempt(observability.AttemptMalformed)
				err = fmt.Errorf("%w: %q", errMalformedReply, truncate(reply.raw, 120))
			}
		} else {
			e.metrics.EnrichAttempt(observability.AttemptTransport)
		}

		e.logger.Warn("enrichment attempt failed",
			zap.String("title", model.Deref(rec.Title)),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		if attempt > maxRetries {
			break
		}
		if err := e.sleep(ctx, time.Duration(attempt)*e.backoffUnit); err != nil {
			e.logger.Warn("enrichment backoff interrupted", zap.Error(err))
			break
		}
	}

	e.metrics.EnrichOutcome(observability.SourceFallback)
	return Fallback(rec)
}

func (e *Enricher) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (e *Enricher) cacheKey(rec model.RawRecord) string {
	payload, err := json.Marshal(rec)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return cacheKeyPrefix + e.model + ":" + hex.EncodeToString(sum[:])
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
