package enrich

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"catalogscout/internal/model"
	"catalogscout/internal/normalize"
)

var errMalformedReply = errors.New("model reply is not a JSON object")

// parsedReply is either validReply or malformedReply.
type parsedReply interface {
	isParsedReply()
}

type validReply struct {
	summary       json.RawMessage
	priceClean    json.RawMessage
	ratingNumeric json.RawMessage
}

type malformedReply struct {
	raw string
}

func (validReply) isParsedReply()     {}
func (malformedReply) isParsedReply() {}

func parseReply(text string) parsedReply {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil || obj == nil {
		return malformedReply{raw: text}
	}
	return validReply{
		summary:       obj["summary"],
		priceClean:    obj["price_clean"],
		ratingNumeric: obj["rating_numeric"],
	}
}

// fields coerces each value independently; a field of the wrong type or out
// of range falls back to the local normalizer for that field only.
func (r validReply) fields(rec model.RawRecord) model.EnrichedFields {
	out := model.EnrichedFields{
		Summary:       asString(r.summary),
		PriceClean:    normalize.CleanPriceOf(rec.Price),
		RatingNumeric: normalize.RatingOf(rec.Rating),
	}
	if v, ok := asFloat(r.priceClean); ok && v >= 0 {
		out.PriceClean = &v
	}
	if n, ok := asInt(r.ratingNumeric); ok && n >= 1 && n <= 5 {
		out.RatingNumeric = &n
	}
	return out
}

// Fallback derives every enrichment field from the raw text alone.
func Fallback(rec model.RawRecord) model.EnrichedFields {
	return model.EnrichedFields{
		Summary:       "",
		PriceClean:    normalize.CleanPriceOf(rec.Price),
		RatingNumeric: normalize.RatingOf(rec.Rating),
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func asString(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func asFloat(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		if v, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, false
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func asInt(raw json.RawMessage) (int, bool) {
	if isNull(raw) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(math.Trunc(v)), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
