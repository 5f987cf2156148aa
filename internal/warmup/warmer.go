// Package warmup prefetches quotes for every category tab at startup so the
// snapshot store is populated before the first poll cycle.
package warmup

import (
	"context"
	"fmt"
	"sync"

	"github.com/commodex/commodex/errs"
	"github.com/commodex/commodex/internal/feed"
	"github.com/commodex/commodex/internal/observability"
	"github.com/commodex/commodex/internal/snapshot"
)

// Warmer fetches categories through the feed with bounded concurrency and
// persists each response.
type Warmer struct {
	feedClient feed.Feed
	store      snapshot.Store
	country    string
	workers    int
}

// NewWarmer builds a warmer. workers bounds concurrent fetches.
func NewWarmer(feedClient feed.Feed, store snapshot.Store, country string, workers int) (*Warmer, error) {
	if feedClient == nil || store == nil {
		return nil, errs.New("warmup", errs.CodeInvalid, errs.WithMessage("feed and store are required"))
	}
	if workers <= 0 {
		workers = 2
	}
	return &Warmer{feedClient: feedClient, store: store, country: country, workers: workers}, nil
}

// Warm fetches and persists every category. Individual failures do not stop
// the remaining categories; the first error is returned once all workers
// finish.
func (w *Warmer) Warm(ctx context.Context, categories []string) error {
	if len(categories) == 0 {
		return nil
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var first error

	record := func(err error) {
		mu.Lock()
		if first == nil {
			first = err
		}
		mu.Unlock()
	}

	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for category := range jobs {
				if err := w.warmOne(ctx, category); err != nil {
					record(err)
					observability.Log().Error("warmup fetch failed",
						observability.String("category", category), observability.Err(err))
				}
			}
		}()
	}

	for _, category := range categories {
		select {
		case <-ctx.Done():
			record(fmt.Errorf("warmup context: %w", ctx.Err()))
			close(jobs)
			wg.Wait()
			return first
		case jobs <- category:
		}
	}
	close(jobs)
	wg.Wait()
	return first
}

func (w *Warmer) warmOne(ctx context.Context, category string) error {
	result, err := w.feedClient.FetchQuotes(ctx, category)
	if err != nil {
		return err
	}
	_, err = w.store.Put(ctx, snapshot.Record{
		Key:       snapshot.Key{Country: w.country, Category: category},
		Quotes:    result.Quotes,
		FetchedAt: result.Timestamp,
	})
	return err
}
