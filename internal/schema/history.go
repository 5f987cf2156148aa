package schema

import (
	"github.com/shopspring/decimal"

	"github.com/commodex/commodex/internal/numeric"
)

// DefaultHistorySource labels history records that carry no source tag.
const DefaultHistorySource = "default"

// HistoryRecord is one time-series observation as delivered by the backend,
// keyed upstream by a historical-series name that may not match any canonical
// or raw name exactly.
type HistoryRecord struct {
	Date   string        `json:"date"`
	Price  numeric.Value `json:"price"`
	Source string        `json:"source"`
}

// SourceOrDefault returns the record's source tag, or DefaultHistorySource
// when the record carries none.
func (r HistoryRecord) SourceOrDefault() string {
	if r.Source == "" {
		return DefaultHistorySource
	}
	return r.Source
}

// HistoryIndex maps historical-series names to their records.
type HistoryIndex map[string][]HistoryRecord

// HistoryPoint is one presentation-ready observation. Time is the 0-indexed
// position within its series. IsReal is always true: the pipeline never
// fabricates synthetic observations.
type HistoryPoint struct {
	Time   int
	Price  decimal.Decimal
	Date   string
	Source string
	IsReal bool
}

// HistorySeries is one line of a commodity chart: all points sharing a source.
type HistorySeries struct {
	Source string
	Points []HistoryPoint
}

// Clone returns a deep copy of the series.
func (s HistorySeries) Clone() HistorySeries {
	clone := s
	if s.Points != nil {
		clone.Points = append([]HistoryPoint(nil), s.Points...)
	}
	return clone
}
