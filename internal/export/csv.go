package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"catalogscout/internal/model"
)

// Columns is the union of the raw and enriched keys, in output order.
var Columns = []string{"title", "price", "availability", "rating", "summary", "price_clean", "rating_numeric"}

// CSVSink writes one row per record to a file, replacing it on every run.
type CSVSink struct {
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(ctx context.Context, _ uuid.UUID, records []model.EnrichedRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create csv dir %s: %w", dir, err)
		}
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create csv %s: %w", s.path, err)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv %s: %w", s.path, err)
	}
	return nil
}

// WriteCSV writes the header and the records without an index column. Nil
// values become empty cells.
func WriteCSV(w io.Writer, records []model.EnrichedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			model.Deref(r.Title),
			model.Deref(r.Price),
			model.Deref(r.Availability),
			model.Deref(r.Rating),
			r.Summary,
			formatFloat(r.PriceClean),
			formatInt(r.RatingNumeric),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
