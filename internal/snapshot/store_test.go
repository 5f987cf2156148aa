package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/commodex/commodex/errs"
	"github.com/commodex/commodex/internal/numeric"
	"github.com/commodex/commodex/internal/schema"
)

func sampleRecord() Record {
	return Record{
		Key: Key{Country: "china", Category: "metals"},
		Quotes: []schema.RawQuote{
			{RawName: "黄金", Price: numeric.Parse("485.2"), Unit: "元/克", URL: "https://quotes.example.com/gold"},
			{RawName: "铜(华东)", Price: numeric.Parse("68,350"), ChangePercent: numeric.Parse("-0.8")},
		},
		FetchedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestKeyValidate(t *testing.T) {
	require.NoError(t, Key{Country: "china", Category: "metals"}.Validate())

	var e *errs.E
	err := Key{Country: "china"}.Validate()
	require.ErrorAs(t, err, &e)
	require.Equal(t, errs.CodeInvalid, e.Code)

	err = Key{Category: "metals"}.Validate()
	require.ErrorAs(t, err, &e)
	require.Equal(t, errs.CodeInvalid, e.Code)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	runStoreRoundTrip(t, store)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	defer store.Close()
	runStoreRoundTrip(t, store)
}

func runStoreRoundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, Key{Country: "china", Category: "metals"})
	var e *errs.E
	require.ErrorAs(t, err, &e)
	require.Equal(t, errs.CodeNotFound, e.Code)

	record := sampleRecord()
	stored, err := store.Put(ctx, record)
	require.NoError(t, err)
	require.EqualValues(t, 1, stored.Version)

	got, err := store.Get(ctx, record.Key)
	require.NoError(t, err)
	require.Len(t, got.Quotes, 2)
	require.Equal(t, "黄金", got.Quotes[0].RawName)
	require.True(t, got.Quotes[0].Price.Decimal.Equal(record.Quotes[0].Price.Decimal))
	require.True(t, got.Quotes[1].Price.Decimal.Equal(record.Quotes[1].Price.Decimal))
	require.True(t, got.FetchedAt.Equal(record.FetchedAt))

	record.Quotes = record.Quotes[:1]
	stored, err = store.Put(ctx, record)
	require.NoError(t, err)
	require.EqualValues(t, 2, stored.Version)

	got, err = store.Get(ctx, record.Key)
	require.NoError(t, err)
	require.Len(t, got.Quotes, 1)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []Key{{Country: "china", Category: "metals"}}, keys)
}

func TestMemoryStoreCloneIsolation(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	record := sampleRecord()
	_, err := store.Put(ctx, record)
	require.NoError(t, err)

	got, err := store.Get(ctx, record.Key)
	require.NoError(t, err)
	got.Quotes[0].RawName = "mutated"

	again, err := store.Get(ctx, record.Key)
	require.NoError(t, err)
	require.Equal(t, "黄金", again.Quotes[0].RawName)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = store.Put(context.Background(), sampleRecord())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), Key{Country: "china", Category: "metals"})
	require.NoError(t, err)
	require.Len(t, got.Quotes, 2)
	require.EqualValues(t, 1, got.Version)
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	var e *errs.E
	require.ErrorAs(t, err, &e)
	require.Equal(t, errs.CodeInvalid, e.Code)
}

func TestMemoryStoreHonoursContext(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, sampleRecord())
	require.True(t, errors.Is(err, context.Canceled))
}
