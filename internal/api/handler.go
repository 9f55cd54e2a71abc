// Package api serves stored records to the dashboard as JSON.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"catalogscout/internal/model"
)

const maxLimit = 500

type BookLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.StoredRecord, error)
}

// Response is the envelope shared by every endpoint.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type BooksHandler struct {
	books  BookLister
	logger *zap.Logger
}

func NewBooksHandler(books BookLister, logger *zap.Logger) *BooksHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BooksHandler{books: books, logger: logger}
}

// List handles GET /books, newest first.
func (h *BooksHandler) List(c echo.Context) error {
	limit := 0
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, Response{Status: "error", Message: "limit must be a positive integer"})
		}
		limit = min(n, maxLimit)
	}

	books, err := h.books.ListRecent(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("list books", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, Response{Status: "error", Message: "failed to load books"})
	}
	if books == nil {
		books = []model.StoredRecord{}
	}
	return c.JSON(http.StatusOK, Response{Status: "success", Data: books})
}

func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, Response{Status: "success", Message: "ok"})
}

func NewServer(books BookLister, logger *zap.Logger, middleware ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware...)
	h := NewBooksHandler(books, logger)
	e.GET("/healthz", Health)
	e.GET("/books", h.List)
	return e
}
