package feed

import (
	"time"

	"github.com/commodex/commodex/internal/numeric"
	"github.com/commodex/commodex/internal/schema"
)

// QuotesResult is one data-refresh response: the raw quotes and the backend's
// fetch timestamp.
type QuotesResult struct {
	Quotes    []schema.RawQuote
	Timestamp time.Time
}

type quotesEnvelope struct {
	Data      []schema.RawQuote `json:"data"`
	Timestamp int64             `json:"timestamp"`
}

type historyEnvelope struct {
	Data map[string][]schema.HistoryRecord `json:"data"`
}

type sourcesEnvelope struct {
	Data schema.SourceCascade `json:"data"`
}

type rateEnvelope struct {
	Data numeric.Value `json:"data"`
}
