// Package schema defines the canonical commodity data model shared across the
// reconciliation pipeline.
package schema

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/commodex/commodex/internal/numeric"
)

// RawQuote is one source-website's reported price record before merging.
// It arrives from the crawler and is never mutated.
type RawQuote struct {
	RawName       string        `json:"name"`
	Price         numeric.Value `json:"price"`
	ChangePercent numeric.Value `json:"changePercent"`
	Unit          string        `json:"unit"`
	URL           string        `json:"url"`
	Category      string        `json:"category"`
}

// HostLabel derives a short host label from the quote URL, e.g.
// "https://www.example.com/gold" yields "example.com". Empty or unparsable
// URLs yield the empty string.
func (q RawQuote) HostLabel() string {
	raw := strings.TrimSpace(q.URL)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// SourceQuote is one distinct raw name folded into a canonical commodity.
type SourceQuote struct {
	RawName       string
	Price         decimal.Decimal
	ChangePercent decimal.Decimal
	Unit          string
	URL           string
	HostLabel     string
}

// RegionVariant is a canonical commodity's price as reported for one
// sub-national region. ColorIndex is assigned at insertion time and is
// deterministic for a given input order.
type RegionVariant struct {
	RegionLabel   string
	FullRawName   string
	Price         decimal.Decimal
	ChangePercent decimal.Decimal
	Unit          string
	ColorIndex    int
}

// CanonicalCommodity is the de-duplicated, cross-source representation of one
// physical commodity. Instances are rebuilt from scratch on every refresh tick
// and never patched in place.
type CanonicalCommodity struct {
	CanonicalName string
	RawNames      []string
	SourceQuotes  []SourceQuote
	Regions       []RegionVariant
	IsRegional    bool

	// Representative fields come from the first-seen quote for the key.
	Price         decimal.Decimal
	ChangePercent decimal.Decimal
	Unit          string

	// Convenience fields; cleared once a second source is folded in so
	// consumers read SourceQuotes instead of silently showing one source.
	URL       string
	HostLabel string

	// BackendCategory is the first non-empty crawler-assigned category seen
	// for this key. Category is the classified tab id annotated afterwards.
	BackendCategory string
	Category        string

	History []HistorySeries
}

// HasRawName reports whether name was already folded into this commodity.
func (c *CanonicalCommodity) HasRawName(name string) bool {
	for _, existing := range c.RawNames {
		if existing == name {
			return true
		}
	}
	return false
}

// HasRegion reports whether a variant with the given label exists.
func (c *CanonicalCommodity) HasRegion(label string) bool {
	for _, r := range c.Regions {
		if r.RegionLabel == label {
			return true
		}
	}
	return false
}

// LookupNames returns the canonical name followed by every raw name, the order
// history matching probes keys in.
func (c *CanonicalCommodity) LookupNames() []string {
	names := make([]string, 0, len(c.RawNames)+1)
	names = append(names, c.CanonicalName)
	for _, raw := range c.RawNames {
		if raw != c.CanonicalName {
			names = append(names, raw)
		}
	}
	return names
}

// Clone returns a deep copy of the commodity.
func (c CanonicalCommodity) Clone() CanonicalCommodity {
	clone := c
	if c.RawNames != nil {
		clone.RawNames = append([]string(nil), c.RawNames...)
	}
	if c.SourceQuotes != nil {
		clone.SourceQuotes = append([]SourceQuote(nil), c.SourceQuotes...)
	}
	if c.Regions != nil {
		clone.Regions = append([]RegionVariant(nil), c.Regions...)
	}
	if c.History != nil {
		clone.History = make([]HistorySeries, len(c.History))
		for i, s := range c.History {
			clone.History[i] = s.Clone()
		}
	}
	return clone
}
