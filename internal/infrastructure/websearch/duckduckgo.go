package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/clcruickshank2/datenight/internal/config"
	"github.com/clcruickshank2/datenight/internal/ports"
)

const maxResults = 10

var spaceExpr = regexp.MustCompile(`\s+`)

// DuckDuckGo scrapes the no-JavaScript DuckDuckGo results page.
type DuckDuckGo struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

var _ ports.WebSearcher = (*DuckDuckGo)(nil)

// NewDuckDuckGo builds a searcher from config; an empty endpoint uses the public html endpoint.
func NewDuckDuckGo(cfg config.WebSearchConfig) *DuckDuckGo {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://html.duckduckgo.com/html/"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &DuckDuckGo{
		endpoint:  endpoint,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// Search returns organic results in page order.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	u, err := url.Parse(d.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}
	return parseResults(doc), nil
}

func parseResults(doc *goquery.Document) []ports.SearchResult {
	var out []ports.SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		title := collapse(link.Text())
		href, _ := link.Attr("href")
		target := resolveRedirect(href)
		if title == "" || target == "" {
			return true
		}
		out = append(out, ports.SearchResult{
			Title:   title,
			URL:     target,
			Snippet: collapse(s.Find(".result__snippet").First().Text()),
		})
		return len(out) < maxResults
	})
	return out
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func collapse(s string) string {
	return strings.TrimSpace(spaceExpr.ReplaceAllString(s, " "))
}
