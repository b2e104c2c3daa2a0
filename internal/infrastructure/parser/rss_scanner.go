package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/scanner"
)

const maxRawContent = 20000

// RSSScanner reads RSS and Atom feeds through gofeed.
type RSSScanner struct {
	client *http.Client
}

// NewRSSScanner wires an HTTP client; nil uses a 20s default.
func NewRSSScanner(client *http.Client) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan parses the source feed and returns items published after req.Since.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if req.Source.FeedURL == "" {
		return nil, fmt.Errorf("no feed url provided for source %s", req.Source.ID)
	}

	fp := gofeed.NewParser()
	fp.Client = r.client
	fp.UserAgent = userAgent

	feed, err := fp.ParseURLWithContext(req.Source.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("source %s: parse feed: %w", req.Source.ID, err)
	}

	now := time.Now().UTC()
	results := make([]domain.Article, 0, len(feed.Items))
	seen := map[string]struct{}{}
	for _, item := range feed.Items {
		article, ok := itemToArticle(item, req.Source, now)
		if !ok {
			continue
		}
		if article.PublishedAt != nil && !req.Since.IsZero() && article.PublishedAt.Before(req.Since) {
			continue
		}
		if _, dup := seen[article.URL]; dup {
			continue
		}
		seen[article.URL] = struct{}{}
		results = append(results, article)
	}
	return results, nil
}

func itemToArticle(item *gofeed.Item, source domain.Source, now time.Time) (domain.Article, bool) {
	if item == nil {
		return domain.Article{}, false
	}
	link := strings.TrimSpace(item.Link)
	title := cleanText(item.Title)
	if link == "" || title == "" {
		return domain.Article{}, false
	}

	article := domain.Article{
		ID:         ArticleID(source.ID, link),
		SourceID:   source.ID,
		ExternalID: item.GUID,
		Title:      title,
		URL:        link,
		Summary:    htmlToText(item.Description),
		FetchedAt:  now,
	}
	if content := htmlToText(item.Content); content != "" {
		if len(content) > maxRawContent {
			content = content[:maxRawContent]
		}
		article.RawContent = content
	}
	switch {
	case item.Image != nil && item.Image.URL != "":
		article.ImageURL = item.Image.URL
	default:
		for _, enc := range item.Enclosures {
			if enc != nil && strings.HasPrefix(enc.Type, "image/") {
				article.ImageURL = enc.URL
				break
			}
		}
	}
	switch {
	case item.PublishedParsed != nil:
		published := item.PublishedParsed.UTC()
		article.PublishedAt = &published
	case item.UpdatedParsed != nil:
		updated := item.UpdatedParsed.UTC()
		article.PublishedAt = &updated
	}
	return article, true
}

// htmlToText flattens feed markup to readable text.
func htmlToText(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	if !strings.Contains(markup, "<") {
		return cleanText(markup)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return cleanText(markup)
	}
	return cleanText(doc.Text())
}
