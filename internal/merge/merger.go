// Package merge folds raw quotes into canonical commodity entities.
package merge

import (
	"strings"

	"github.com/commodex/commodex/internal/alias"
	"github.com/commodex/commodex/internal/region"
	"github.com/commodex/commodex/internal/schema"
)

// Merger accumulates raw quotes into canonical commodities keyed on the
// alias-resolved, region-stripped base name. Accumulation order is the input
// order, and the first-seen quote for a key supplies the representative
// price, change, and unit.
type Merger struct {
	aliases     *alias.Resolver
	regions     *region.Parser
	paletteSize int
}

// NewMerger builds a merger over the injected resolver and region parser.
// paletteSize bounds the deterministic color index handed to region variants.
func NewMerger(aliases *alias.Resolver, regions *region.Parser, paletteSize int) *Merger {
	if paletteSize <= 0 {
		paletteSize = 1
	}
	return &Merger{aliases: aliases, regions: regions, paletteSize: paletteSize}
}

// Merge builds the canonical commodity set from scratch. Quotes with an empty
// raw name are dropped; quotes with unparsable prices are kept with their
// coerced zero value rather than lost. The output partitions every surviving
// raw name into exactly one commodity.
func (m *Merger) Merge(quotes []schema.RawQuote) []schema.CanonicalCommodity {
	keyed := make(map[string]*schema.CanonicalCommodity, len(quotes))
	order := make([]string, 0, len(quotes))

	for _, quote := range quotes {
		rawName := strings.TrimSpace(quote.RawName)
		if rawName == "" {
			continue
		}
		resolved := m.aliases.Resolve(rawName)
		isRegional := m.regions.IsRegional(resolved)
		key := resolved
		if isRegional {
			key = m.regions.BaseName(resolved)
		}

		entry, exists := keyed[key]
		if !exists {
			entry = m.newCommodity(key, quote)
			keyed[key] = entry
			order = append(order, key)
		} else if entry.HasRawName(rawName) {
			continue
		} else {
			entry.RawNames = append(entry.RawNames, rawName)
			entry.SourceQuotes = append(entry.SourceQuotes, sourceQuote(quote))
			if len(entry.SourceQuotes) > 1 {
				entry.URL = ""
				entry.HostLabel = ""
			}
			if entry.BackendCategory == "" {
				entry.BackendCategory = strings.TrimSpace(quote.Category)
			}
		}
		if isRegional {
			m.appendRegion(entry, resolved, quote)
		}
	}

	out := make([]schema.CanonicalCommodity, 0, len(order))
	for _, key := range order {
		out = append(out, *keyed[key])
	}
	return out
}

func (m *Merger) newCommodity(key string, quote schema.RawQuote) *schema.CanonicalCommodity {
	return &schema.CanonicalCommodity{
		CanonicalName:   key,
		RawNames:        []string{strings.TrimSpace(quote.RawName)},
		SourceQuotes:    []schema.SourceQuote{sourceQuote(quote)},
		Price:           quote.Price.Decimal,
		ChangePercent:   quote.ChangePercent.Decimal,
		Unit:            quote.Unit,
		URL:             quote.URL,
		HostLabel:       quote.HostLabel(),
		BackendCategory: strings.TrimSpace(quote.Category),
	}
}

// appendRegion records a region variant, unique by label, with the color
// index fixed at insertion time: count-of-existing-regions mod palette size.
func (m *Merger) appendRegion(entry *schema.CanonicalCommodity, resolved string, quote schema.RawQuote) {
	entry.IsRegional = true
	label := m.regions.RegionLabel(resolved)
	if entry.HasRegion(label) {
		return
	}
	entry.Regions = append(entry.Regions, schema.RegionVariant{
		RegionLabel:   label,
		FullRawName:   resolved,
		Price:         quote.Price.Decimal,
		ChangePercent: quote.ChangePercent.Decimal,
		Unit:          quote.Unit,
		ColorIndex:    len(entry.Regions) % m.paletteSize,
	})
}

func sourceQuote(quote schema.RawQuote) schema.SourceQuote {
	return schema.SourceQuote{
		RawName:       strings.TrimSpace(quote.RawName),
		Price:         quote.Price.Decimal,
		ChangePercent: quote.ChangePercent.Decimal,
		Unit:          quote.Unit,
		URL:           quote.URL,
		HostLabel:     quote.HostLabel(),
	}
}
