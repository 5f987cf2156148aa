// Package app holds the daemon's reconciliation state: the latest feed inputs
// and the view recomputed from them.
package app

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/commodex/commodex/config"
	"github.com/commodex/commodex/internal/currency"
	"github.com/commodex/commodex/internal/feed"
	"github.com/commodex/commodex/internal/observability"
	"github.com/commodex/commodex/internal/pipeline"
	"github.com/commodex/commodex/internal/schema"
	"github.com/commodex/commodex/internal/snapshot"
	"github.com/commodex/commodex/internal/telemetry"
)

// Service recomputes the commodity view whenever an input changes. All slow
// data (history, sources, rate) is refreshed out of band; quotes arrive
// through the refresh coordinator's apply callback.
type Service struct {
	pipe    *pipeline.Pipeline
	store   snapshot.Store
	metrics *telemetry.Metrics

	mu           sync.RWMutex
	quotes       []schema.RawQuote
	history      schema.HistoryIndex
	cascade      schema.SourceCascade
	rate         decimal.Decimal
	target       currency.Currency
	scope        schema.FilterScope
	historyRange int
	output       pipeline.Output
}

// NewService builds the service over the injected tables. store may be nil
// when persistence is disabled.
func NewService(tables config.Tables, store snapshot.Store, metrics *telemetry.Metrics, target currency.Currency, historyRange int) *Service {
	return &Service{
		pipe:         pipeline.New(tables),
		store:        store,
		metrics:      metrics,
		target:       target,
		scope:        schema.NewFilterScope(),
		historyRange: historyRange,
	}
}

// Restore loads the last persisted quotes for the current scope so the view
// has content before the first fetch completes. A missing snapshot is not an
// error.
func (s *Service) Restore(ctx context.Context) {
	if s.store == nil {
		return
	}
	s.mu.Lock()
	key := snapshot.Key{Country: s.scope.Country, Category: s.scope.CategoryTab}
	s.mu.Unlock()

	record, err := s.store.Get(ctx, key)
	if err != nil {
		observability.Log().Debug("no snapshot to restore",
			observability.String("category", key.Category), observability.Err(err))
		return
	}
	s.ApplyQuotes(ctx, key.Category, feed.QuotesResult{Quotes: record.Quotes, Timestamp: record.FetchedAt})
}

// ApplyQuotes replaces the quote set and recomputes the view. Called from the
// refresh coordinator once a response has been confirmed current.
func (s *Service) ApplyQuotes(ctx context.Context, category string, result feed.QuotesResult) {
	s.mu.Lock()
	s.quotes = result.Quotes
	s.recomputeLocked()
	key := snapshot.Key{Country: s.scope.Country, Category: category}
	s.mu.Unlock()

	s.metrics.ReconcileRun(ctx, len(result.Quotes))

	if s.store == nil {
		return
	}
	if _, err := s.store.Put(ctx, snapshot.Record{Key: key, Quotes: result.Quotes, FetchedAt: result.Timestamp}); err != nil {
		observability.Log().Error("persist snapshot",
			observability.String("category", category), observability.Err(err))
	}
}

// SetHistory replaces the history index and recomputes.
func (s *Service) SetHistory(index schema.HistoryIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = index
	s.recomputeLocked()
}

// SetCascade replaces the source cascade and recomputes.
func (s *Service) SetCascade(cascade schema.SourceCascade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cascade = cascade
	s.recomputeLocked()
}

// SetRate replaces the exchange rate and recomputes.
func (s *Service) SetRate(rate decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
	s.recomputeLocked()
}

// SetScope installs a new narrowing scope, reseeding the explicit selection
// when the country or category tab changed.
func (s *Service) SetScope(scope schema.FilterScope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reseed := scope.Country != s.scope.Country || scope.CategoryTab != s.scope.CategoryTab
	s.scope = scope
	if reseed {
		s.scope = s.pipe.Reseed(s.inputLocked())
	}
	s.recomputeLocked()
}

// SelectAll widens the explicit selection to everything the active filters
// allow.
func (s *Service) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = s.pipe.SelectAll(s.inputLocked())
	s.recomputeLocked()
}

// Scope returns a copy of the current narrowing scope.
func (s *Service) Scope() schema.FilterScope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope.Clone()
}

// Category returns the active category tab, for the polling loop.
func (s *Service) Category() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope.CategoryTab
}

// View returns the last reconciled output.
func (s *Service) View() pipeline.Output {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.output
}

func (s *Service) inputLocked() pipeline.Input {
	return pipeline.Input{
		Quotes:       s.quotes,
		History:      s.history,
		Cascade:      s.cascade,
		Rate:         s.rate,
		Target:       s.target,
		Scope:        s.scope,
		HistoryRange: s.historyRange,
	}
}

func (s *Service) recomputeLocked() {
	s.output = s.pipe.Reconcile(s.inputLocked())
}
