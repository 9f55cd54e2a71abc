// Package normalize holds the deterministic conversions used to sanitize
// enrichment input and to fill enrichment fields when the model fails.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reThousands = regexp.MustCompile(`(\d),(\d{3})(?:\D|$)`)
	rePrice     = regexp.MustCompile(`[0-9]+(?:[.,][0-9]{1,2})?`)
)

var ratingWords = map[string]int{
	"one":   1,
	"two":   2,
	"three": 3,
	"four":  4,
	"five":  5,
	"1":     1,
	"2":     2,
	"3":     3,
	"4":     4,
	"5":     5,
}

// CleanPrice returns the first numeric token of a currency string such as
// "£51.77" or "£51,77", or nil when the text has no digits.
func CleanPrice(text string) *float64 {
	// "1,234.56" style grouping commas go first so they are not read as decimals.
	text = stripThousands(text)
	m := rePrice.FindString(text)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return nil
	}
	return &v
}

func stripThousands(text string) string {
	for {
		loc := reThousands.FindStringSubmatchIndex(text)
		if loc == nil {
			return text
		}
		// loc[2:4] is the digit before the comma; the comma sits right after it.
		comma := loc[3]
		text = text[:comma] + text[comma+1:]
	}
}

// RatingWordToNumber maps one..five (any case) and "1".."5" to 1..5.
func RatingWordToNumber(word string) *int {
	n, ok := ratingWords[strings.ToLower(word)]
	if !ok {
		return nil
	}
	return &n
}

func CleanPriceOf(text *string) *float64 {
	if text == nil {
		return nil
	}
	return CleanPrice(*text)
}

func RatingOf(label *string) *int {
	if label == nil {
		return nil
	}
	return RatingWordToNumber(*label)
}
