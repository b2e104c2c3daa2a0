package curation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clcruickshank2/datenight/internal/domain"
	"github.com/clcruickshank2/datenight/internal/ports"
)

const (
	excerptTimeout     = 10 * time.Second
	excerptConcurrency = 5
)

// FetchExcerpts downloads the linked page of each article concurrently. A failed
// fetch leaves that excerpt empty and is reported, it never aborts the batch.
// The result keeps the input order.
func FetchExcerpts(ctx context.Context, fetcher ports.ExcerptFetcher, articles []domain.Article) ([]domain.CuratedArticle, []string) {
	out := make([]domain.CuratedArticle, len(articles))
	for i, a := range articles {
		out[i] = domain.CuratedArticle{Article: a}
	}
	if fetcher == nil {
		return out, nil
	}

	var (
		mu   sync.Mutex
		errs []string
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(excerptConcurrency)
	for i := range articles {
		i := i
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(gCtx, excerptTimeout)
			defer cancel()

			text, err := fetcher.Excerpt(fctx, articles[i].URL)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Sprintf("excerpt %s: %v", articles[i].ID, err))
				mu.Unlock()
				return nil
			}
			out[i].Excerpt = text
			return nil
		})
	}
	_ = g.Wait()
	return out, errs
}
