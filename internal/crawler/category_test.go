package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"catalogscout/internal/model"
)

func card(href string) string {
	return fmt.Sprintf(`<article class="product_pod"><h3><a href="%s" title="x">x</a></h3></article>`, href)
}

func detail(title, price, rating string) string {
	return fmt.Sprintf(`<html><body><div class="product_main"><h1>%s</h1>`+
		`<p class="price_color">%s</p><p class="instock availability">In stock</p>`+
		`<p class="star-rating %s"></p></div></body></html>`, title, price, rating)
}

func newCatalog(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/catalogue/category/books/travel_2/index.html", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body><ol>"+
			card("../../../first_1/index.html")+
			card("../../../broken_2/index.html")+
			card("../../../third_3/index.html")+
			`</ol><ul class="pager"><li class="next"><a href="page-2.html">next</a></li></ul></body></html>`)
	})
	mux.HandleFunc("/catalogue/category/books/travel_2/page-2.html", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body><ol>"+card("../../../fourth_4/index.html")+"</ol></body></html>")
	})
	mux.HandleFunc("/catalogue/first_1/index.html", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, detail("First", "£10.00", "One"))
	})
	mux.HandleFunc("/catalogue/broken_2/index.html", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/catalogue/third_3/index.html", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, detail("Third", "£30.00", "Three"))
	})
	mux.HandleFunc("/catalogue/fourth_4/index.html", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, detail("Fourth", "£40.00", "Four"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func titles(records []model.RawRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, model.Deref(r.Title))
	}
	return out
}

func TestWalkSkipsFailedItemsAndKeepsOrder(t *testing.T) {
	t.Parallel()

	srv := newCatalog(t)
	w := NewWalker(NewFetcher(srv.Client(), ""), zap.NewNop(), WithItemDelay(0))

	records := w.Walk(context.Background(), srv.URL+"/catalogue/category/books/travel_2/index.html")

	require.Len(t, records, 2)
	assert.Equal(t, []string{"First", "Third"}, titles(records))
	assert.Equal(t, "£30.00", model.Deref(records[1].Price))
	assert.Equal(t, "Three", model.Deref(records[1].Rating))
}

func TestWalkFollowsNextPage(t *testing.T) {
	t.Parallel()

	srv := newCatalog(t)
	w := NewWalker(NewFetcher(srv.Client(), ""), nil, WithItemDelay(0), WithMaxPages(2))

	records := w.Walk(context.Background(), srv.URL+"/catalogue/category/books/travel_2/index.html")

	assert.Equal(t, []string{"First", "Third", "Fourth"}, titles(records))
}

func TestWalkCategoryFailureReturnsEmpty(t *testing.T) {
	t.Parallel()

	srv := newCatalog(t)
	w := NewWalker(NewFetcher(srv.Client(), ""), zap.NewNop(), WithItemDelay(0))

	records := w.Walk(context.Background(), srv.URL+"/catalogue/category/books/missing/index.html")

	assert.Empty(t, records)
}

func TestWalkResolvesRelativeLinks(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		visited []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		visited = append(visited, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/a/b/c/index.html" {
			fmt.Fprint(w, card("../../../x/index.html")+card("/abs/index.html"))
			return
		}
		fmt.Fprint(w, "<h1>item</h1>")
	}))
	defer srv.Close()

	w := NewWalker(NewFetcher(srv.Client(), ""), zap.NewNop(), WithItemDelay(0))
	records := w.Walk(context.Background(), srv.URL+"/a/b/c/index.html")

	require.Len(t, records, 2)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/a/b/c/index.html", "/x/index.html", "/abs/index.html"}, visited)
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func TestWalkPausesBetweenItemFetches(t *testing.T) {
	t.Parallel()

	log := &eventLog{}
	mux := http.NewServeMux()
	mux.HandleFunc("/catalogue/category/books/travel_2/index.html", func(w http.ResponseWriter, _ *http.Request) {
		log.add("category")
		fmt.Fprint(w, "<html><body>"+card("../../../a_1/index.html")+card("../../../b_2/index.html")+
			card("../../../c_3/index.html")+"</body></html>")
	})
	for _, name := range []string{"a_1", "b_2", "c_3"} {
		mux.HandleFunc("/catalogue/"+name+"/index.html", func(w http.ResponseWriter, _ *http.Request) {
			// Slower than the pause, so a start-rate limit alone would let the next fetch go out at once.
			time.Sleep(150 * time.Millisecond)
			if name == "b_2" {
				log.add("fetch " + name + " failed")
				http.Error(w, "gone", http.StatusNotFound)
				return
			}
			log.add("fetch " + name)
			fmt.Fprint(w, detail(name, "£1.00", "One"))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	w := NewWalker(NewFetcher(srv.Client(), ""), zap.NewNop())
	var pauses []time.Duration
	w.sleep = func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		log.add("pause")
		return nil
	}

	records := w.Walk(context.Background(), srv.URL+"/catalogue/category/books/travel_2/index.html")

	require.Len(t, records, 2)
	assert.Equal(t, []time.Duration{DefaultItemDelay, DefaultItemDelay}, pauses)
	assert.Equal(t, []string{
		"category",
		"fetch a_1",
		"pause",
		"fetch b_2 failed",
		"pause",
		"fetch c_3",
	}, log.list())
}

func TestWalkStopsWhenPauseInterrupted(t *testing.T) {
	t.Parallel()

	srv := newCatalog(t)
	w := NewWalker(NewFetcher(srv.Client(), ""), zap.NewNop(), WithItemDelay(time.Second))
	w.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	records := w.Walk(context.Background(), srv.URL+"/catalogue/category/books/travel_2/index.html")

	assert.Equal(t, []string{"First"}, titles(records))
}
