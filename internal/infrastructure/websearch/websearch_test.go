package websearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clcruickshank2/datenight/internal/config"
	"github.com/clcruickshank2/datenight/internal/ports"
)

const resultsHTML = `<html><body>
<div class="result result--ad"><a class="result__a" href="https://ads.example/x">Sponsored Sushi</a></div>
<div class="result">
  <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.sushiden.net%2F&amp;rut=abc">Sushi Den - Denver's Japanese Institution</a></h2>
  <a class="result__snippet">Fresh fish flown in daily on South Pearl Street.</a>
</div>
<div class="result">
  <h2><a class="result__a" href="https://www.yelp.com/search?find_desc=sushi">Top 10 Best Sushi in Denver</a></h2>
</div>
<div class="result"><a class="result__a" href="javascript:void(0)">Broken</a></div>
</body></html>`

func TestDuckDuckGoSearch(t *testing.T) {
	t.Parallel()

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(resultsHTML))
	}))
	defer server.Close()

	d := NewDuckDuckGo(config.WebSearchConfig{Endpoint: server.URL + "/html/"})
	results, err := d.Search(context.Background(), "  sushi restaurant Denver ")
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if gotQuery != "sushi restaurant Denver" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 organic results, got %+v", results)
	}
	if results[0].URL != "https://www.sushiden.net/" || results[0].Snippet == "" {
		t.Fatalf("redirect not unwrapped: %+v", results[0])
	}
	if results[1].Title != "Top 10 Best Sushi in Denver" {
		t.Fatalf("unexpected second result %+v", results[1])
	}
}

type countingSearcher struct {
	mu    sync.Mutex
	calls int
	out   []ports.SearchResult
	err   error
}

func (c *countingSearcher) Search(context.Context, string) ([]ports.SearchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.out, c.err
}

type memoryStore struct {
	data   map[string]string
	getErr error
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", errCacheMiss
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func TestCachedSearcherHitsCache(t *testing.T) {
	t.Parallel()

	live := &countingSearcher{out: []ports.SearchResult{{Title: "Sushi Den", URL: "https://sushiden.net"}}}
	store := &memoryStore{data: map[string]string{}}
	cached := newCachedSearcher(live, store, time.Hour, nil)

	for _, q := range []string{"Sushi  Restaurant Denver", "sushi restaurant denver"} {
		results, err := cached.Search(context.Background(), q)
		if err != nil || len(results) != 1 || results[0].Title != "Sushi Den" {
			t.Fatalf("unexpected results %+v, err %v", results, err)
		}
	}
	if live.calls != 1 {
		t.Fatalf("expected one live search, got %d", live.calls)
	}
}

func TestCachedSearcherFallsThrough(t *testing.T) {
	t.Parallel()

	live := &countingSearcher{out: []ports.SearchResult{{Title: "A", URL: "https://a"}}}
	broken := &memoryStore{data: map[string]string{}, getErr: errors.New("connection refused")}
	cached := newCachedSearcher(live, broken, 0, nil)

	results, err := cached.Search(context.Background(), "ramen denver")
	if err != nil || len(results) != 1 {
		t.Fatalf("cache failure must fall through, got %+v %v", results, err)
	}

	failing := &countingSearcher{err: errors.New("search returned 503")}
	cached = newCachedSearcher(failing, &memoryStore{data: map[string]string{}}, 0, nil)
	if _, err := cached.Search(context.Background(), "ramen denver"); err == nil {
		t.Fatalf("live failure must be returned")
	}
}

func TestCachedSearcherUnreachableRedis(t *testing.T) {
	t.Parallel()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	live := &countingSearcher{out: []ports.SearchResult{{Title: "B", URL: "https://b"}}}
	cached := NewCachedSearcher(live, rdb, time.Minute, nil)

	results, err := cached.Search(context.Background(), "tacos denver")
	if err != nil || len(results) != 1 || live.calls != 1 {
		t.Fatalf("expected live results when redis is down, got %+v %v", results, err)
	}
}
