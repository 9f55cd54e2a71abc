package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func get(e http.Handler, target string) int {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec.Code
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	t.Parallel()

	e := NewServer(&stubLister{}, nil, RateLimit(2, time.Hour))

	assert.Equal(t, http.StatusOK, get(e, "/books"))
	assert.Equal(t, http.StatusOK, get(e, "/books"))
	assert.Equal(t, http.StatusTooManyRequests, get(e, "/books"))
	assert.Equal(t, http.StatusOK, get(e, "/healthz"))
}

func TestRateLimitDisabled(t *testing.T) {
	t.Parallel()

	e := NewServer(&stubLister{}, nil, RateLimit(0, time.Hour))
	for range 5 {
		assert.Equal(t, http.StatusOK, get(e, "/books"))
	}
}
