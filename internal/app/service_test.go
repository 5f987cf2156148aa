package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/commodex/commodex/config"
	"github.com/commodex/commodex/internal/currency"
	"github.com/commodex/commodex/internal/feed"
	"github.com/commodex/commodex/internal/numeric"
	"github.com/commodex/commodex/internal/schema"
	"github.com/commodex/commodex/internal/snapshot"
)

func testQuotes() []schema.RawQuote {
	return []schema.RawQuote{
		{RawName: "黄金", Price: numeric.Parse("485.2"), Unit: "元/克", Category: "贵金属"},
		{RawName: "铜(华东)", Price: numeric.Parse("68350"), Unit: "元/吨"},
		{RawName: "PP拉丝", Price: numeric.Parse("7450"), Unit: "元/吨"},
	}
}

func TestApplyQuotesRecomputesAndPersists(t *testing.T) {
	store := snapshot.NewMemoryStore()
	defer store.Close()

	svc := NewService(config.DefaultTables(), store, nil, currency.CNY, 30)
	svc.ApplyQuotes(context.Background(), schema.CategoryAll, feed.QuotesResult{
		Quotes:    testQuotes(),
		Timestamp: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	})

	out := svc.View()
	require.Len(t, out.All, 3)
	require.Len(t, out.Visible, 3)

	record, err := store.Get(context.Background(), snapshot.Key{Country: schema.CountryAll, Category: schema.CategoryAll})
	require.NoError(t, err)
	require.Len(t, record.Quotes, 3)
}

func TestRestoreServesLastGoodView(t *testing.T) {
	store := snapshot.NewMemoryStore()
	defer store.Close()
	_, err := store.Put(context.Background(), snapshot.Record{
		Key:    snapshot.Key{Country: schema.CountryAll, Category: schema.CategoryAll},
		Quotes: testQuotes(),
	})
	require.NoError(t, err)

	svc := NewService(config.DefaultTables(), store, nil, currency.CNY, 30)
	svc.Restore(context.Background())
	require.Len(t, svc.View().All, 3)
}

func TestRestoreWithoutSnapshotIsSilent(t *testing.T) {
	store := snapshot.NewMemoryStore()
	defer store.Close()

	svc := NewService(config.DefaultTables(), store, nil, currency.CNY, 30)
	svc.Restore(context.Background())
	require.Empty(t, svc.View().All)
}

func TestSetScopeReseedsOnTabChange(t *testing.T) {
	svc := NewService(config.DefaultTables(), nil, nil, currency.CNY, 30)
	svc.ApplyQuotes(context.Background(), schema.CategoryAll, feed.QuotesResult{Quotes: testQuotes()})

	scope := svc.Scope()
	scope.CategoryTab = "metals"
	svc.SetScope(scope)

	got := svc.Scope()
	require.Equal(t, "metals", got.CategoryTab)
	// Reseed repopulates the selection from the metals tab's members.
	require.Equal(t, map[string]struct{}{"黄金": {}, "铜": {}}, got.Selection)

	out := svc.View()
	require.Len(t, out.Visible, 2)
}

func TestSetScopeKeepsSelectionWithinSameTab(t *testing.T) {
	svc := NewService(config.DefaultTables(), nil, nil, currency.CNY, 30)
	svc.ApplyQuotes(context.Background(), schema.CategoryAll, feed.QuotesResult{Quotes: testQuotes()})

	scope := svc.Scope()
	scope.Selection = map[string]struct{}{"黄金": {}}
	svc.SetScope(scope)

	require.Equal(t, map[string]struct{}{"黄金": {}}, svc.Scope().Selection)
	require.Len(t, svc.View().Visible, 1)
}

func TestSelectAllWidensSelection(t *testing.T) {
	svc := NewService(config.DefaultTables(), nil, nil, currency.CNY, 30)
	svc.ApplyQuotes(context.Background(), schema.CategoryAll, feed.QuotesResult{Quotes: testQuotes()})

	scope := svc.Scope()
	scope.Selection = map[string]struct{}{"黄金": {}}
	svc.SetScope(scope)
	require.Len(t, svc.View().Visible, 1)

	svc.SelectAll()
	require.Len(t, svc.View().Visible, 3)
}

func TestSetRateRerendersPrices(t *testing.T) {
	svc := NewService(config.DefaultTables(), nil, nil, currency.USD, 30)
	svc.ApplyQuotes(context.Background(), schema.CategoryAll, feed.QuotesResult{Quotes: []schema.RawQuote{
		{RawName: "黄金", Price: numeric.Parse("720"), Unit: "元/克"},
	}})

	svc.SetRate(decimal.NewFromFloat(7.2))
	out := svc.View()
	require.Len(t, out.Visible, 1)
	require.Equal(t, "100.0", out.Visible[0].DisplayPrice)
}
