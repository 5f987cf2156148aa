// Package feed talks to the crawler backend that produces raw quotes,
// history, the data-sources cascade, and the exchange rate.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/commodex/commodex/config"
	"github.com/commodex/commodex/errs"
	"github.com/commodex/commodex/internal/schema"
)

// Feed is the backend surface the refresh coordinator consumes.
type Feed interface {
	FetchQuotes(ctx context.Context, category string) (QuotesResult, error)
	FetchHistory(ctx context.Context, days int) (schema.HistoryIndex, error)
	FetchSources(ctx context.Context) (schema.SourceCascade, error)
	FetchRate(ctx context.Context) (decimal.Decimal, error)
}

const (
	retryInitialInterval = 200 * time.Millisecond
	retryMaxInterval     = 2 * time.Second
	maxAttempts          = 3
)

// Client fetches backend payloads over HTTP with bounded retry.
type Client struct {
	client   *http.Client
	baseURL  string
	settings config.BackendSettings
}

// NewClient creates a feed client for the configured backend.
func NewClient(settings config.BackendSettings) *Client {
	timeout := settings.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := new(http.Client)
	client.Timeout = timeout
	return &Client{
		client:   client,
		baseURL:  strings.TrimRight(settings.BaseURL, "/"),
		settings: settings,
	}
}

// FetchQuotes requests the raw quotes for a category; an empty category asks
// for everything.
func (c *Client) FetchQuotes(ctx context.Context, category string) (QuotesResult, error) {
	query := url.Values{}
	if category != "" && category != schema.CategoryAll {
		query.Set("category", category)
	}
	body, err := c.get(ctx, c.settings.DataEndpoint, query)
	if err != nil {
		return QuotesResult{}, err
	}
	var envelope quotesEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return QuotesResult{}, errs.New("feed", errs.CodeMalformedInput,
			errs.WithMessage("decode quotes payload"), errs.WithCause(err))
	}
	result := QuotesResult{Quotes: envelope.Data}
	if envelope.Timestamp > 0 {
		result.Timestamp = time.UnixMilli(envelope.Timestamp).UTC()
	}
	return result, nil
}

// FetchHistory requests the history index for a day-count window.
func (c *Client) FetchHistory(ctx context.Context, days int) (schema.HistoryIndex, error) {
	query := url.Values{}
	if days > 0 {
		query.Set("days", strconv.Itoa(days))
	}
	body, err := c.get(ctx, c.settings.HistoryEndpoint, query)
	if err != nil {
		return nil, err
	}
	var envelope historyEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errs.New("feed", errs.CodeMalformedInput,
			errs.WithMessage("decode history payload"), errs.WithCause(err))
	}
	return schema.HistoryIndex(envelope.Data), nil
}

// FetchSources requests the country → website → commodity cascade.
func (c *Client) FetchSources(ctx context.Context) (schema.SourceCascade, error) {
	body, err := c.get(ctx, c.settings.SourcesEndpoint, nil)
	if err != nil {
		return schema.SourceCascade{}, err
	}
	var envelope sourcesEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return schema.SourceCascade{}, errs.New("feed", errs.CodeMalformedInput,
			errs.WithMessage("decode sources payload"), errs.WithCause(err))
	}
	return envelope.Data, nil
}

// FetchRate requests the USD→CNY exchange rate.
func (c *Client) FetchRate(ctx context.Context) (decimal.Decimal, error) {
	body, err := c.get(ctx, c.settings.RateEndpoint, nil)
	if err != nil {
		return decimal.Zero, err
	}
	var envelope rateEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return decimal.Zero, errs.New("feed", errs.CodeMalformedInput,
			errs.WithMessage("decode rate payload"), errs.WithCause(err))
	}
	if envelope.Data.Defaulted || envelope.Data.Decimal.Sign() <= 0 {
		return decimal.Zero, errs.New("feed", errs.CodeMalformedInput,
			errs.WithMessage("exchange rate missing or non-positive"))
	}
	return envelope.Data.Decimal, nil
}

// get issues the request with exponential-backoff retry on transport errors
// and 5xx responses. Context cancellation stops the loop immediately.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	backoffCfg := backoff.NewExponentialBackOff()
	backoffCfg.InitialInterval = retryInitialInterval
	backoffCfg.MaxInterval = retryMaxInterval

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("feed get context: %w", ctx.Err())
		default:
		}

		body, retryable, err := c.once(ctx, target)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		sleep := backoffCfg.NextBackOff()
		if sleep == backoff.Stop {
			sleep = retryMaxInterval
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("feed get context: %w", ctx.Err())
		case <-time.After(sleep):
		}
	}
	return nil, lastErr
}

func (c *Client) once(ctx context.Context, target string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, errs.New("feed", errs.CodeInvalid,
			errs.WithMessage("create request"), errs.WithCause(err))
	}
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, fmt.Errorf("feed get context: %w", ctx.Err())
		}
		return nil, true, errs.New("feed", errs.CodeNetwork,
			errs.WithMessage("fetch backend"), errs.WithCause(err),
			errs.WithField("url", target))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode >= 500
		return nil, retryable, errs.New("feed", errs.CodeNetwork,
			errs.WithHTTP(resp.StatusCode),
			errs.WithMessage("backend status"),
			errs.WithField("url", target))
	}
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errs.New("feed", errs.CodeNetwork,
			errs.WithMessage("read body"), errs.WithCause(err))
	}
	return body, false, nil
}
