// Package refresh implements the stale-safe asynchronous refresh protocol.
// Every fetch is tagged with a token; a response is applied only while its
// token is still the current one, so a slow response for a previously-selected
// category can never overwrite the state chosen afterwards.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"golang.org/x/time/rate"

	"github.com/commodex/commodex/internal/feed"
	"github.com/commodex/commodex/internal/observability"
	"github.com/commodex/commodex/internal/telemetry"
)

// Token tags one fetch-for-category request. Seq increases monotonically
// across all requests; ID labels the request in logs.
type Token struct {
	Category string
	Seq      uint64
	ID       string
}

// ApplyFunc receives a response whose token was still current at completion.
type ApplyFunc func(category string, result feed.QuotesResult)

// ErrorFunc receives transport failures for current (non-superseded) requests.
type ErrorFunc func(category string, err error)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithMetrics records refresh outcomes on the given counters.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithLogger overrides the coordinator's logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.log = logger
		}
	}
}

// WithErrorFunc registers the transport-failure callback.
func WithErrorFunc(fn ErrorFunc) Option {
	return func(c *Coordinator) { c.onError = fn }
}

// Coordinator issues data fetches and discards superseded responses. The view
// state it applies into has a single logical owner, so appliers run without
// coordinator locks held.
type Coordinator struct {
	feedClient feed.Feed
	apply      ApplyFunc
	onError    ErrorFunc
	metrics    *telemetry.Metrics
	log        observability.Logger

	mu       sync.Mutex
	seq      uint64
	current  Token
	loading  bool
	inflight map[string]struct{}

	tasks conc.WaitGroup
}

// NewCoordinator builds a coordinator over the feed. apply is invoked for
// every response that is still current when it completes.
func NewCoordinator(feedClient feed.Feed, apply ApplyFunc, opts ...Option) *Coordinator {
	c := &Coordinator{
		feedClient: feedClient,
		apply:      apply,
		log:        observability.Log(),
		inflight:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Refresh issues a non-forced fetch for the category. It reports false when
// an identical request is already in flight, which keeps overlapping periodic
// triggers from stacking.
func (c *Coordinator) Refresh(ctx context.Context, category string) bool {
	return c.refresh(ctx, category, false)
}

func (c *Coordinator) refresh(ctx context.Context, category string, forced bool) bool {
	key := cacheKey(category, forced)

	c.mu.Lock()
	if _, busy := c.inflight[key]; busy {
		c.mu.Unlock()
		return false
	}
	c.seq++
	token := Token{Category: category, Seq: c.seq, ID: uuid.NewString()}
	c.current = token
	c.loading = true
	c.inflight[key] = struct{}{}
	c.mu.Unlock()

	c.log.Debug("refresh issued",
		observability.String("category", category),
		observability.String("token", token.ID))

	c.tasks.Go(func() {
		result, err := c.feedClient.FetchQuotes(ctx, category)
		c.complete(ctx, token, key, forced, result, err)
	})
	return true
}

// complete applies or discards one finished request. Only the request whose
// token is still current may touch the loading flag.
func (c *Coordinator) complete(ctx context.Context, token Token, key string, forced bool, result feed.QuotesResult, err error) {
	c.mu.Lock()
	delete(c.inflight, key)
	if c.current.Seq != token.Seq {
		c.mu.Unlock()
		c.metrics.RefreshStale(ctx, token.Category)
		c.log.Debug("discarding stale response",
			observability.String("category", token.Category),
			observability.String("token", token.ID))
		return
	}

	if err != nil {
		c.loading = false
		c.mu.Unlock()
		if isCancellation(err) {
			// Cancelled in-flight work is indistinguishable from stale.
			c.metrics.RefreshStale(ctx, token.Category)
			return
		}
		c.metrics.RefreshFailed(ctx, token.Category)
		c.log.Error("refresh failed",
			observability.String("category", token.Category),
			observability.Err(err))
		if c.onError != nil {
			c.onError(token.Category, err)
		}
		return
	}

	if len(result.Quotes) == 0 && !forced {
		// The forced retry owns the loading flag from here; forcing only
		// after a non-forced call keeps this from recursing.
		c.mu.Unlock()
		c.metrics.RefreshForced(ctx, token.Category)
		c.log.Info("empty response, forcing refetch",
			observability.String("category", token.Category))
		if !c.refresh(ctx, token.Category, true) {
			// Deduped against a forced fetch issued for a superseded
			// token; that fetch will complete stale, so nobody else
			// would clear the flag.
			c.mu.Lock()
			if c.current.Seq == token.Seq {
				c.loading = false
			}
			c.mu.Unlock()
		}
		return
	}

	c.loading = false
	c.mu.Unlock()

	c.apply(token.Category, result)
	c.metrics.RefreshApplied(ctx, token.Category)
	c.log.Info("refresh applied",
		observability.String("category", token.Category),
		observability.Int("quotes", len(result.Quotes)))
}

// Loading reports whether the current request is still in flight.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Current returns the most recently issued token.
func (c *Coordinator) Current() Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Poll refreshes the category returned by category at the given interval
// until ctx is cancelled. Pacing runs through a rate limiter, and the
// in-flight dedupe keeps a slow refresh from being joined by the next tick.
func (c *Coordinator) Poll(ctx context.Context, interval time.Duration, category func() string) {
	if interval <= 0 {
		return
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		c.Refresh(ctx, category())
	}
}

// Wait blocks until all in-flight completions have run.
func (c *Coordinator) Wait() {
	c.tasks.Wait()
}

func cacheKey(category string, forced bool) string {
	if forced {
		return "quotes:" + category + ":forced"
	}
	return "quotes:" + category
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
