package enrich

import (
	"encoding/json"
	"fmt"

	"catalogscout/internal/model"
)

func SystemPrompt() string {
	return "You are a concise assistant. Return ONLY valid JSON with no extra text."
}

// UserPrompt embeds the record as JSON and restricts the reply to the three
// enrichment keys, using only what the record contains.
func UserPrompt(rec model.RawRecord) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return `Input: a JSON object with keys: title, price, availability, rating.
Return valid JSON (no extra text) with exactly these keys: summary, price_clean, rating_numeric.
 - summary: 1-2 sentence product summary suitable for a catalog (use ONLY the supplied fields).
 - price_clean: numeric price as float, or null if the price is missing.
 - rating_numeric: integer 1-5 corresponding to the star-rating, or null if the rating is missing.
Do NOT invent facts beyond the provided fields. Output only parsable JSON.

Input JSON:
` + string(payload), nil
}
