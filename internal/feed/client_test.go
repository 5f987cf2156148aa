package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/commodex/commodex/config"
	"github.com/commodex/commodex/errs"
)

func testSettings(baseURL string) config.BackendSettings {
	cfg := config.Default().Backend
	cfg.BaseURL = baseURL
	cfg.HTTPTimeout = 2 * time.Second
	return cfg
}

func TestFetchQuotesDecodesHeterogeneousPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/data", r.URL.Path)
		require.Equal(t, "metals", r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(`{
			"data": [
				{"name": "Gold", "price": 2000.5, "changePercent": "-1.2", "unit": "USD/oz", "url": "https://a.example.com"},
				{"name": "白银", "price": "n/a", "unit": "元/千克"}
			],
			"timestamp": 1788220800000
		}`))
	}))
	defer srv.Close()

	c := NewClient(testSettings(srv.URL))
	result, err := c.FetchQuotes(context.Background(), "metals")
	require.NoError(t, err)
	require.Len(t, result.Quotes, 2)
	require.True(t, result.Quotes[0].Price.Decimal.Equal(decimal.RequireFromString("2000.5")))
	// Unparsable price coerces to defaulted zero instead of failing the document.
	require.True(t, result.Quotes[1].Price.Defaulted)
	require.Equal(t, 2026, result.Timestamp.Year())
}

func TestFetchQuotesAllCategorySendsNoParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.URL.Query().Get("category"))
		_, _ = w.Write([]byte(`{"data": [], "timestamp": 0}`))
	}))
	defer srv.Close()

	c := NewClient(testSettings(srv.URL))
	result, err := c.FetchQuotes(context.Background(), "all")
	require.NoError(t, err)
	require.Empty(t, result.Quotes)
	require.True(t, result.Timestamp.IsZero())
}

func TestFetchHistoryAndSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/price-history":
			require.Equal(t, "30", r.URL.Query().Get("days"))
			_, _ = w.Write([]byte(`{"data": {"黄金": [{"date": "2026-08-01", "price": 2000, "source": "site-a"}]}}`))
		case "/api/data-sources":
			_, _ = w.Write([]byte(`{"data": {"websites": [{"id": "cn-1", "country": "cn", "commodities": ["黄金"]}], "categories": ["金属"]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(testSettings(srv.URL))

	index, err := c.FetchHistory(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, index["黄金"], 1)
	require.Equal(t, "site-a", index["黄金"][0].Source)

	cascade, err := c.FetchSources(context.Background())
	require.NoError(t, err)
	require.Len(t, cascade.Websites, 1)
	require.Equal(t, []string{"金属"}, cascade.Categories)
}

func TestFetchRateRejectsNonPositive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": 0}`))
	}))
	defer srv.Close()

	c := NewClient(testSettings(srv.URL))
	_, err := c.FetchRate(context.Background())
	require.Error(t, err)
}

func TestFetchRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": 7.2}`))
	}))
	defer srv.Close()

	c := NewClient(testSettings(srv.URL))
	rate, err := c.FetchRate(context.Background())
	require.NoError(t, err)
	require.True(t, rate.Equal(decimal.RequireFromString("7.2")))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data": [], "timestamp": 0}`))
	}))
	defer srv.Close()

	c := NewClient(testSettings(srv.URL))
	_, err := c.FetchQuotes(context.Background(), "")
	require.NoError(t, err)
	require.EqualValues(t, 3, calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(testSettings(srv.URL))
	_, err := c.FetchQuotes(context.Background(), "")
	require.Error(t, err)
	var envelope *errs.E
	require.ErrorAs(t, err, &envelope)
	require.Equal(t, 404, envelope.HTTP)
	require.EqualValues(t, 1, calls.Load())
}
