package crawler

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"catalogscout/internal/model"
	"catalogscout/internal/observability"
)

const (
	itemCardSelector = "article.product_pod"
	itemLinkSelector = "h3 a"
	nextPageSelector = "li.next a"

	DefaultItemDelay = 100 * time.Millisecond
)

// DocumentFetcher is satisfied by *Fetcher.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Walker visits a category page and extracts every linked item in page order.
type Walker struct {
	fetcher  DocumentFetcher
	delay    time.Duration
	sleep    func(context.Context, time.Duration) error
	maxPages int
	logger   *zap.Logger
	metrics  *observability.Metrics
}

type WalkerOption func(*Walker)

// WithItemDelay sets the pause between the end of one item fetch and the
// start of the next. d <= 0 disables pacing.
func WithItemDelay(d time.Duration) WalkerOption {
	return func(w *Walker) {
		w.delay = d
	}
}

// WithMaxPages follows "next" links until n listing pages have been read.
func WithMaxPages(n int) WalkerOption {
	return func(w *Walker) {
		if n > 0 {
			w.maxPages = n
		}
	}
}

func WithMetrics(m *observability.Metrics) WalkerOption {
	return func(w *Walker) {
		w.metrics = m
	}
}

func NewWalker(fetcher DocumentFetcher, logger *zap.Logger, opts ...WalkerOption) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Walker{
		fetcher:  fetcher,
		delay:    DefaultItemDelay,
		sleep:    sleepContext,
		maxPages: 1,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Walk returns the raw records of every item linked from categoryURL. A
// category page that cannot be fetched ends the walk; an item that cannot be
// fetched is left out.
func (w *Walker) Walk(ctx context.Context, categoryURL string) []model.RawRecord {
	var records []model.RawRecord
	itemsFetched := 0

	pageURL := categoryURL
	for page := 1; page <= w.maxPages && pageURL != ""; page++ {
		doc, err := w.fetcher.Fetch(ctx, pageURL)
		w.metrics.PageFetched(observability.PageCategory, err)
		if err != nil {
			w.logger.Warn("category page fetch failed", zap.String("url", pageURL), zap.Error(err))
			break
		}
		base, err := url.Parse(pageURL)
		if err != nil {
			w.logger.Warn("invalid category url", zap.String("url", pageURL), zap.Error(err))
			break
		}

		links := w.itemLinks(doc, base)
		w.logger.Info("category page read",
			zap.String("url", pageURL),
			zap.Int("page", page),
			zap.Int("items", len(links)),
		)

		for _, link := range links {
			if itemsFetched > 0 && w.delay > 0 {
				if err := w.sleep(ctx, w.delay); err != nil {
					w.logger.Warn("walk interrupted", zap.Error(err))
					return records
				}
			}
			itemDoc, err := w.fetcher.Fetch(ctx, link)
			itemsFetched++
			w.metrics.PageFetched(observability.PageItem, err)
			if err != nil {
				w.logger.Warn("item fetch failed, skipping", zap.String("url", link), zap.Error(err))
				continue
			}
			records = append(records, Extract(itemDoc))
			w.metrics.RecordExtracted()
		}

		pageURL = nextPage(doc, base)
	}
	return records
}

func (w *Walker) itemLinks(doc *goquery.Document, base *url.URL) []string {
	var links []string
	doc.Find(itemCardSelector).Each(func(i int, card *goquery.Selection) {
		href, ok := card.Find(itemLinkSelector).First().Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			w.logger.Debug("item card without link", zap.Int("index", i))
			return
		}
		abs, err := base.Parse(href)
		if err != nil {
			w.logger.Debug("unresolvable item link", zap.String("href", href), zap.Error(err))
			return
		}
		links = append(links, abs.String())
	})
	return links
}

func nextPage(doc *goquery.Document, base *url.URL) string {
	href, ok := doc.Find(nextPageSelector).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return ""
	}
	abs, err := base.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return abs.String()
}
