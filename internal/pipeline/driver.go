// Package pipeline runs one scrape-and-enrich pass and hands the result to
// the configured sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalogscout/internal/model"
	"catalogscout/internal/observability"
)

const (
	DefaultMaxRetries  = 2
	DefaultEnrichDelay = 250 * time.Millisecond
)

type Walker interface {
	Walk(ctx context.Context, categoryURL string) []model.RawRecord
}

type Enricher interface {
	Enrich(ctx context.Context, rec model.RawRecord, maxRetries int) model.EnrichedFields
}

// Sink receives the complete record set of one run, in discovery order.
type Sink interface {
	Name() string
	Write(ctx context.Context, runID uuid.UUID, records []model.EnrichedRecord) error
}

type Driver struct {
	walker     Walker
	enricher   Enricher
	sinks      []Sink
	maxRetries int
	delay      time.Duration
	sleep      func(context.Context, time.Duration) error
	logger     *zap.Logger
	metrics    *observability.Metrics
}

type Option func(*Driver)

func WithSinks(sinks ...Sink) Option {
	return func(d *Driver) {
		d.sinks = append(d.sinks, sinks...)
	}
}

func WithMaxRetries(n int) Option {
	return func(d *Driver) {
		if n >= 0 {
			d.maxRetries = n
		}
	}
}

// WithEnrichDelay sets the pause between enrichment calls.
func WithEnrichDelay(delay time.Duration) Option {
	return func(d *Driver) {
		d.delay = delay
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

func NewDriver(walker Walker, enricher Enricher, logger *zap.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Driver{
		walker:     walker,
		enricher:   enricher,
		maxRetries: DefaultMaxRetries,
		delay:      DefaultEnrichDelay,
		sleep:      sleepContext,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run walks categoryURL, enriches every record and writes the set to each
// sink. Scrape and enrichment problems never fail the run; the returned error
// only reports sinks that could not be written. Once ctx is done no further
// records are enriched.
func (d *Driver) Run(ctx context.Context, categoryURL string) ([]model.EnrichedRecord, error) {
	runID := uuid.New()
	log := d.logger.With(zap.String("run_id", runID.String()))
	started := time.Now()

	raw := d.walker.Walk(ctx, categoryURL)
	log.Info("category walked", zap.String("url", categoryURL), zap.Int("records", len(raw)))

	records := make([]model.EnrichedRecord, 0, len(raw))
	for i, rec := range raw {
		if i > 0 && d.delay > 0 {
			if err := d.sleep(ctx, d.delay); err != nil {
				log.Warn("enrichment delay interrupted", zap.Error(err))
			}
		}
		if err := ctx.Err(); err != nil {
			log.Warn("run canceled, stopping enrichment",
				zap.Int("enriched", len(records)),
				zap.Int("remaining", len(raw)-i),
				zap.Error(err),
			)
			break
		}
		fields := d.enricher.Enrich(ctx, rec, d.maxRetries)
		records = append(records, model.Merge(rec, fields))
	}

	err := d.export(ctx, runID, records)
	log.Info("run finished",
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(started)),
		zap.Bool("export_ok", err == nil),
	)
	return records, err
}

func (d *Driver) export(ctx context.Context, runID uuid.UUID, records []model.EnrichedRecord) error {
	var errs []error
	for _, sink := range d.sinks {
		if err := sink.Write(ctx, runID, records); err != nil {
			d.logger.Error("export failed", zap.String("sink", sink.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s sink: %w", sink.Name(), err))
			continue
		}
		d.metrics.Exported(sink.Name(), len(records))
	}
	return errors.Join(errs...)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
