// Package history associates canonical commodities with time-series records
// keyed by heterogeneous historical names.
package history

import (
	"sort"
	"strings"

	"github.com/commodex/commodex/internal/schema"
)

// Matcher resolves history records for a commodity and shapes them into
// presentation-ready series. It never fabricates observations: a commodity
// with no matching history gets an empty result.
type Matcher struct{}

// NewMatcher returns a history matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Attach finds the history records for the commodity and returns one series
// per source tag, deduplicated on (date, source) with later records winning.
// rangeLen keeps only the trailing rangeLen points per series; zero or
// negative keeps all.
func (m *Matcher) Attach(commodity *schema.CanonicalCommodity, index schema.HistoryIndex, rangeLen int) []schema.HistorySeries {
	records := m.findRecords(commodity, index)
	if len(records) == 0 {
		return nil
	}
	return buildSeries(records, rangeLen)
}

// findRecords probes the index by exact canonical name, then by every raw
// name, then by case-insensitive substring containment in either direction.
// The substring pass walks keys in sorted order so the first hit is stable.
func (m *Matcher) findRecords(commodity *schema.CanonicalCommodity, index schema.HistoryIndex) []schema.HistoryRecord {
	names := commodity.LookupNames()
	for _, name := range names {
		if records, ok := index[name]; ok && len(records) > 0 {
			return records
		}
	}

	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, name := range names {
		lowerName := strings.ToLower(name)
		if lowerName == "" {
			continue
		}
		for _, key := range keys {
			lowerKey := strings.ToLower(key)
			if strings.Contains(lowerKey, lowerName) || strings.Contains(lowerName, lowerKey) {
				if records := index[key]; len(records) > 0 {
					return records
				}
			}
		}
	}
	return nil
}

type dedupKey struct {
	date   string
	source string
}

// buildSeries groups deduplicated records by source, in first-appearance
// source order, with points sorted by date and 0-indexed by position.
func buildSeries(records []schema.HistoryRecord, rangeLen int) []schema.HistorySeries {
	latest := make(map[dedupKey]schema.HistoryRecord, len(records))
	sourceOrder := make([]string, 0, 2)
	seenSource := make(map[string]struct{}, 2)
	for _, record := range records {
		source := record.SourceOrDefault()
		latest[dedupKey{date: record.Date, source: source}] = record
		if _, ok := seenSource[source]; !ok {
			seenSource[source] = struct{}{}
			sourceOrder = append(sourceOrder, source)
		}
	}

	series := make([]schema.HistorySeries, 0, len(sourceOrder))
	for _, source := range sourceOrder {
		dates := make([]string, 0, len(latest))
		for key := range latest {
			if key.source == source {
				dates = append(dates, key.date)
			}
		}
		sort.Strings(dates)
		if rangeLen > 0 && len(dates) > rangeLen {
			dates = dates[len(dates)-rangeLen:]
		}
		points := make([]schema.HistoryPoint, 0, len(dates))
		for i, date := range dates {
			record := latest[dedupKey{date: date, source: source}]
			points = append(points, schema.HistoryPoint{
				Time:   i,
				Price:  record.Price.Decimal,
				Date:   date,
				Source: source,
				IsReal: true,
			})
		}
		series = append(series, schema.HistorySeries{Source: source, Points: points})
	}
	return series
}
