package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"catalogscout/internal/model"
)

const DefaultListLimit = 100

const upsertBook = `
	INSERT INTO books
	(title, price, availability, rating, summary, price_clean, rating_numeric, run_id, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	ON CONFLICT (title) DO UPDATE
	SET price = EXCLUDED.price,
	    availability = EXCLUDED.availability,
	    rating = EXCLUDED.rating,
	    summary = EXCLUDED.summary,
	    price_clean = EXCLUDED.price_clean,
	    rating_numeric = EXCLUDED.rating_numeric,
	    run_id = EXCLUDED.run_id,
	    updated_at = now()
`

const listRecentBooks = `
	SELECT title, price, availability, rating, summary, price_clean, rating_numeric, run_id, updated_at
	FROM books
	ORDER BY updated_at DESC
	LIMIT $1
`

// pgxDB is satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type pgxDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// BookRepository persists enriched records into the books table, keyed by
// title. It also serves as a pipeline sink.
type BookRepository struct {
	DB pgxDB
}

func (r *BookRepository) Name() string { return "postgres" }

// Write upserts the records in one transaction. Records without a title have
// no key and are skipped.
func (r *BookRepository) Write(ctx context.Context, runID uuid.UUID, records []model.EnrichedRecord) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin books upsert: %w", err)
	}
	for _, rec := range records {
		if rec.Title == nil {
			continue
		}
		_, err := tx.Exec(ctx, upsertBook,
			rec.Title, rec.Price, rec.Availability, rec.Rating,
			rec.Summary, rec.PriceClean, rec.RatingNumeric, runID,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("upsert book %q: %w", *rec.Title, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit books upsert: %w", err)
	}
	return nil
}

// ListRecent returns up to limit records, most recently updated first.
func (r *BookRepository) ListRecent(ctx context.Context, limit int) ([]model.StoredRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := r.DB.Query(ctx, listRecentBooks, limit)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var list []model.StoredRecord
	for rows.Next() {
		var s model.StoredRecord
		if err := rows.Scan(
			&s.Title, &s.Price, &s.Availability, &s.Rating,
			&s.Summary, &s.PriceClean, &s.RatingNumeric, &s.RunID, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return list, nil
}
