package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPrice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
	}{
		{"£51.77", 51.77},
		{"£51,77", 51.77},
		{"£12.00", 12.00},
		{"£7", 7},
		{"  € 3.5 ", 3.5},
		{"£1,234.56", 1234.56},
		{"Price: 45.17 GBP (incl. tax 0.00)", 45.17},
	}
	for _, tc := range cases {
		got := CleanPrice(tc.in)
		require.NotNil(t, got, tc.in)
		assert.InDelta(t, tc.want, *got, 1e-9, tc.in)
	}
}

func TestCleanPriceNoDigits(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CleanPrice("£"))
	assert.Nil(t, CleanPrice(""))
	assert.Nil(t, CleanPrice("free"))
	assert.Nil(t, CleanPriceOf(nil))
}

func TestRatingWordToNumber(t *testing.T) {
	t.Parallel()

	words := map[string]int{
		"One": 1, "two": 2, "THREE": 3, "Four": 4, "fIvE": 5,
		"1": 1, "2": 2, "3": 3, "4": 4, "5": 5,
	}
	for in, want := range words {
		got := RatingWordToNumber(in)
		require.NotNil(t, got, in)
		assert.Equal(t, want, *got, in)
	}
}

func TestRatingWordToNumberRejectsUnknown(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "zero", "0", "6", "Fives", "star-rating", "3.0", "thre", " Three ", "Four\n", " 4"} {
		assert.Nil(t, RatingWordToNumber(in), in)
	}
	assert.Nil(t, RatingOf(nil))
}
