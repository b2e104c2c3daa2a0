package excerpt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetcherExcerpt(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><head><style>p{}</style></head><body>
		<header><p>Denver's best food coverage, every single day of the week</p></header>
		<nav><li>Restaurants, bars, and every other section we publish</li></nav>
		<article>
		  <h1>Ash'Kara Reopens in LoHi With a New Menu</h1>
		  <p>The Israeli-inspired restaurant reopened Tuesday with a wood-fired grill.</p>
		  <p>Sign up for our newsletter to get the latest food news every week.</p>
		  <p>Short.</p>
		  <script>var tracking = "Sunday Vinyl should never appear here";</script>
		</article>
		<footer><p>All rights reserved by the publisher of this fine site.</p></footer>
		</body></html>`))
	}))
	defer server.Close()

	f := NewFetcher(server.Client())
	text, err := f.Excerpt(context.Background(), server.URL+"/story")
	if err != nil {
		t.Fatalf("Excerpt error: %v", err)
	}

	want := "Ash'Kara Reopens in LoHi With a New Menu\nThe Israeli-inspired restaurant reopened Tuesday with a wood-fired grill."
	if text != want {
		t.Fatalf("unexpected excerpt:\n%s", text)
	}

	if _, err := f.Excerpt(context.Background(), server.URL+"/missing"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	if got := truncate("crème brûlée", 5); got != "crème" {
		t.Fatalf("unexpected truncation %q", got)
	}
}
