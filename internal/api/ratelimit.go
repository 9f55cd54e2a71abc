package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimit applies one token bucket to every request: requests per interval,
// with bursts up to requests. A non-positive setting disables it.
func RateLimit(requests int, interval time.Duration) echo.MiddlewareFunc {
	if requests <= 0 || interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	perRequest := interval / time.Duration(requests)
	if perRequest <= 0 {
		perRequest = time.Nanosecond
	}
	limiter := rate.NewLimiter(rate.Every(perRequest), requests)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/healthz" {
				return next(c)
			}
			if !limiter.Allow() {
				return c.JSON(http.StatusTooManyRequests, Response{Status: "error", Message: "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
