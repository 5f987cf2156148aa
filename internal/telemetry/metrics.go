// Package telemetry instruments the refresh protocol and the reconciliation
// pipeline with OpenTelemetry counters.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "commodex"

// Metrics groups the counters recorded across refresh and reconcile paths.
type Metrics struct {
	refreshApplied   metric.Int64Counter
	refreshStale     metric.Int64Counter
	refreshForced    metric.Int64Counter
	refreshFailed    metric.Int64Counter
	reconcileRuns    metric.Int64Counter
	quotesReconciled metric.Int64Counter
}

// NewMetrics builds the counter set against the provided meter provider; a
// nil provider falls back to the globally registered one.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	m := new(Metrics)
	var err error
	if m.refreshApplied, err = meter.Int64Counter("commodex.refresh.applied",
		metric.WithDescription("Responses applied because their token was still current")); err != nil {
		return nil, err
	}
	if m.refreshStale, err = meter.Int64Counter("commodex.refresh.stale_discarded",
		metric.WithDescription("Responses discarded because a newer request superseded them")); err != nil {
		return nil, err
	}
	if m.refreshForced, err = meter.Int64Counter("commodex.refresh.forced_refetch",
		metric.WithDescription("Forced refetches triggered by empty non-forced responses")); err != nil {
		return nil, err
	}
	if m.refreshFailed, err = meter.Int64Counter("commodex.refresh.failed",
		metric.WithDescription("Refresh attempts that surfaced a transport failure")); err != nil {
		return nil, err
	}
	if m.reconcileRuns, err = meter.Int64Counter("commodex.reconcile.runs",
		metric.WithDescription("Full pipeline recomputations")); err != nil {
		return nil, err
	}
	if m.quotesReconciled, err = meter.Int64Counter("commodex.reconcile.quotes",
		metric.WithDescription("Raw quotes folded per reconcile run")); err != nil {
		return nil, err
	}
	return m, nil
}

func categoryAttr(category string) metric.AddOption {
	return metric.WithAttributes(attribute.String("category", category))
}

// RefreshApplied records a response applied to state.
func (m *Metrics) RefreshApplied(ctx context.Context, category string) {
	if m == nil {
		return
	}
	m.refreshApplied.Add(ctx, 1, categoryAttr(category))
}

// RefreshStale records a discarded stale response.
func (m *Metrics) RefreshStale(ctx context.Context, category string) {
	if m == nil {
		return
	}
	m.refreshStale.Add(ctx, 1, categoryAttr(category))
}

// RefreshForced records an automatic forced refetch.
func (m *Metrics) RefreshForced(ctx context.Context, category string) {
	if m == nil {
		return
	}
	m.refreshForced.Add(ctx, 1, categoryAttr(category))
}

// RefreshFailed records a transport failure for a current request.
func (m *Metrics) RefreshFailed(ctx context.Context, category string) {
	if m == nil {
		return
	}
	m.refreshFailed.Add(ctx, 1, categoryAttr(category))
}

// ReconcileRun records one pipeline recomputation over n raw quotes.
func (m *Metrics) ReconcileRun(ctx context.Context, quotes int) {
	if m == nil {
		return
	}
	m.reconcileRuns.Add(ctx, 1)
	m.quotesReconciled.Add(ctx, int64(quotes))
}
