package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/scanner"
)

const userAgent = "datenight/1.0 (+https://github.com/clcruickshank2/datenight)"

var (
	dateExpr   = regexp.MustCompile(`[A-Z][a-z]{2,8}\.? \d{1,2}, \d{4}`)
	spaceExpr  = regexp.MustCompile(`\s+`)
	dateLayout = []string{"January 2, 2006", "Jan 2, 2006", "Jan. 2, 2006"}
)

// HTMLScanner reads a publication's listing page and extracts article teasers.
// Selectors come from source options: itemSelector, linkSelector, titleSelector, summarySelector.
type HTMLScanner struct {
	client *http.Client
}

// NewHTMLScanner wires an HTTP client; nil uses a 20s default.
func NewHTMLScanner(client *http.Client) *HTMLScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

// Scan fetches the listing page and returns teasers published after req.Since.
// Teasers without a date are kept.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if req.Source.BaseURL == "" {
		return nil, fmt.Errorf("no base url provided for source %s", req.Source.ID)
	}
	base, err := url.Parse(req.Source.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %s: %w", req.Source.BaseURL, err)
	}

	doc, err := fetchDocument(ctx, h.client, req.Source.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", req.Source.ID, err)
	}

	now := time.Now().UTC()
	results := make([]domain.Article, 0)
	seen := map[string]struct{}{}

	doc.Find(req.Option("itemSelector", "article")).Each(func(_ int, item *goquery.Selection) {
		article, ok := parseTeaser(item, base, req, now)
		if !ok {
			return
		}
		if article.PublishedAt != nil && !req.Since.IsZero() && article.PublishedAt.Before(req.Since) {
			return
		}
		if _, dup := seen[article.URL]; dup {
			return
		}
		seen[article.URL] = struct{}{}
		results = append(results, article)
	})

	return results, nil
}

func fetchDocument(ctx context.Context, client *http.Client, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func parseTeaser(item *goquery.Selection, base *url.URL, req scanner.Request, now time.Time) (domain.Article, bool) {
	link := item.Find(req.Option("linkSelector", "a[href]")).First()
	href, exists := link.Attr("href")
	if !exists || strings.TrimSpace(href) == "" {
		return domain.Article{}, false
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return domain.Article{}, false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return domain.Article{}, false
	}
	abs.Fragment = ""

	title := cleanText(item.Find(req.Option("titleSelector", "h2, h3")).First().Text())
	if title == "" {
		title = cleanText(link.Text())
	}
	if title == "" {
		return domain.Article{}, false
	}

	article := domain.Article{
		ID:        ArticleID(req.Source.ID, abs.String()),
		SourceID:  req.Source.ID,
		Title:     title,
		URL:       abs.String(),
		Summary:   cleanText(item.Find(req.Option("summarySelector", "p")).First().Text()),
		FetchedAt: now,
	}
	if img, ok := item.Find("img[src]").First().Attr("src"); ok {
		if imgRef, err := url.Parse(img); err == nil {
			article.ImageURL = base.ResolveReference(imgRef).String()
		}
	}
	if published, ok := teaserDate(item); ok {
		article.PublishedAt = &published
	}
	return article, true
}

// teaserDate prefers a machine-readable <time datetime> and falls back to "Month D, YYYY" text.
func teaserDate(item *goquery.Selection) (time.Time, bool) {
	if raw, ok := item.Find("time[datetime]").First().Attr("datetime"); ok {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
				return parsed.UTC(), true
			}
		}
	}
	match := dateExpr.FindString(item.Text())
	if match == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayout {
		if parsed, err := time.Parse(layout, match); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// ArticleID derives a stable identifier from the source and canonical URL.
func ArticleID(sourceID, link string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(sourceID+"|"+link)).String()
}

func cleanText(s string) string {
	return strings.TrimSpace(spaceExpr.ReplaceAllString(s, " "))
}
