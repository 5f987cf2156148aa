package warmup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/commodex/commodex/internal/feed"
	"github.com/commodex/commodex/internal/numeric"
	"github.com/commodex/commodex/internal/schema"
	"github.com/commodex/commodex/internal/snapshot"
)

type stubFeed struct {
	mu      sync.Mutex
	fetched []string
	fail    map[string]error
}

func (s *stubFeed) FetchQuotes(_ context.Context, category string) (feed.QuotesResult, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, category)
	s.mu.Unlock()
	if err := s.fail[category]; err != nil {
		return feed.QuotesResult{}, err
	}
	return feed.QuotesResult{
		Quotes:    []schema.RawQuote{{RawName: category + "-item", Price: numeric.Parse("10")}},
		Timestamp: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	}, nil
}

func (s *stubFeed) FetchHistory(context.Context, int) (schema.HistoryIndex, error) {
	return nil, nil
}

func (s *stubFeed) FetchSources(context.Context) (schema.SourceCascade, error) {
	return schema.SourceCascade{}, nil
}

func (s *stubFeed) FetchRate(context.Context) (decimal.Decimal, error) {
	return decimal.Decimal{}, nil
}

func TestWarmPopulatesEveryCategory(t *testing.T) {
	store := snapshot.NewMemoryStore()
	defer store.Close()

	warmer, err := NewWarmer(&stubFeed{}, store, "china", 2)
	require.NoError(t, err)

	categories := []string{"metals", "energy", "plastics", "agriculture"}
	require.NoError(t, warmer.Warm(context.Background(), categories))

	for _, category := range categories {
		record, err := store.Get(context.Background(), snapshot.Key{Country: "china", Category: category})
		require.NoError(t, err)
		require.Len(t, record.Quotes, 1)
		require.Equal(t, category+"-item", record.Quotes[0].RawName)
	}
}

func TestWarmContinuesPastFailures(t *testing.T) {
	store := snapshot.NewMemoryStore()
	defer store.Close()

	boom := errors.New("backend down")
	stub := &stubFeed{fail: map[string]error{"energy": boom}}
	warmer, err := NewWarmer(stub, store, "china", 1)
	require.NoError(t, err)

	err = warmer.Warm(context.Background(), []string{"metals", "energy", "plastics"})
	require.ErrorIs(t, err, boom)

	_, err = store.Get(context.Background(), snapshot.Key{Country: "china", Category: "plastics"})
	require.NoError(t, err)
	_, err = store.Get(context.Background(), snapshot.Key{Country: "china", Category: "energy"})
	require.Error(t, err)
}

func TestWarmWithNoCategoriesIsNoop(t *testing.T) {
	store := snapshot.NewMemoryStore()
	defer store.Close()

	warmer, err := NewWarmer(&stubFeed{}, store, "china", 4)
	require.NoError(t, err)
	require.NoError(t, warmer.Warm(context.Background(), nil))
}

func TestNewWarmerValidatesInputs(t *testing.T) {
	_, err := NewWarmer(nil, nil, "china", 1)
	require.Error(t, err)
}
