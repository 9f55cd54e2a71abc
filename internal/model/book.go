package model

import (
	"time"

	"github.com/google/uuid"
)

// RawRecord is what the extractor pulls from one detail page. A nil field
// means the element was absent.
type RawRecord struct {
	Title        *string `json:"title"`
	Price        *string `json:"price"`
	Availability *string `json:"availability"`
	Rating       *string `json:"rating"`
}

// EnrichedFields come from the model or, failing that, the local normalizer.
// RatingNumeric is within 1..5 and PriceClean is non-negative when set.
type EnrichedFields struct {
	Summary       string   `json:"summary"`
	PriceClean    *float64 `json:"price_clean"`
	RatingNumeric *int     `json:"rating_numeric"`
}

type EnrichedRecord struct {
	RawRecord
	EnrichedFields
}

func Merge(raw RawRecord, fields EnrichedFields) EnrichedRecord {
	return EnrichedRecord{RawRecord: raw, EnrichedFields: fields}
}

// StoredRecord is an EnrichedRecord as read back from the books table.
type StoredRecord struct {
	EnrichedRecord
	RunID     uuid.UUID `json:"run_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Str returns a pointer to s, for building records by hand.
func Str(s string) *string {
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
