package excerpt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/clcruickshank2/datenight/internal/ports"
)

const (
	maxChars    = 4000
	maxBodySize = 2 << 20
	userAgent   = "Mozilla/5.0 (compatible; datenight/1.0)"
)

var (
	spaceExpr = regexp.MustCompile(`\s+`)

	strippedSelectors = "script, style, noscript, nav, footer, header, aside, form, iframe, svg, figure figcaption"
	boilerplate       = []string{
		"sign up for", "subscribe", "newsletter", "all rights reserved", "privacy policy",
		"terms of use", "cookie", "advertisement", "follow us", "share this",
	}
)

// Fetcher downloads article pages and keeps the readable paragraphs.
type Fetcher struct {
	client *http.Client
}

var _ ports.ExcerptFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; nil uses a 10s default.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Fetcher{client: client}
}

// Excerpt returns up to maxChars of cleaned body text.
func (f *Fetcher) Excerpt(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	return Clean(doc), nil
}

// Clean drops page chrome and returns the paragraph text of the main content.
func Clean(doc *goquery.Document) string {
	doc.Find(strippedSelectors).Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var parts []string
	root.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(spaceExpr.ReplaceAllString(s.Text(), " "))
		if len(text) < 25 || isBoilerplate(text) {
			return
		}
		parts = append(parts, text)
	})
	if len(parts) == 0 {
		parts = append(parts, strings.TrimSpace(spaceExpr.ReplaceAllString(root.Text(), " ")))
	}

	return truncate(strings.Join(parts, "\n"), maxChars)
}

func isBoilerplate(text string) bool {
	lower := strings.ToLower(text)
	for _, b := range boilerplate {
		if strings.Contains(lower, b) {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
