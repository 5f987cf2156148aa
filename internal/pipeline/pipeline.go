// Package pipeline wires the reconciliation stages into one pure entrypoint.
// The whole commodity view is recomputed from the latest snapshot on every
// tick; nothing carries over between runs.
package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/commodex/commodex/config"
	"github.com/commodex/commodex/internal/alias"
	"github.com/commodex/commodex/internal/classify"
	"github.com/commodex/commodex/internal/currency"
	"github.com/commodex/commodex/internal/filter"
	"github.com/commodex/commodex/internal/history"
	"github.com/commodex/commodex/internal/merge"
	"github.com/commodex/commodex/internal/region"
	"github.com/commodex/commodex/internal/schema"
)

// Input is one complete snapshot of externally-sourced data plus the user's
// narrowing state.
type Input struct {
	Quotes       []schema.RawQuote
	History      schema.HistoryIndex
	Cascade      schema.SourceCascade
	Rate         decimal.Decimal
	Target       currency.Currency
	Scope        schema.FilterScope
	HistoryRange int
}

// SourceView is one source's formatted price for the detail panel.
type SourceView struct {
	RawName      string
	HostLabel    string
	URL          string
	DisplayPrice string
}

// RegionView is one region variant's formatted price.
type RegionView struct {
	RegionLabel  string
	DisplayPrice string
	ColorIndex   int
}

// View is one presentation-ready commodity: the canonical entity plus its
// display strings, converted into the target currency exactly once.
type View struct {
	Commodity     schema.CanonicalCommodity
	DisplayPrice  string
	DisplayChange string
	Sources       []SourceView
	Regions       []RegionView
}

// Output carries the reconciled commodity set and the scope-narrowed views.
type Output struct {
	All     []schema.CanonicalCommodity
	Visible []View
}

// Pipeline composes the reconciliation stages over one set of tables.
type Pipeline struct {
	merger     *merge.Merger
	classifier *classify.Classifier
	matcher    *history.Matcher
	engine     *filter.Engine
	converter  *currency.Converter
}

// New builds a pipeline from the injected tables.
func New(tables config.Tables) *Pipeline {
	resolver := alias.NewResolver(tables.Aliases)
	parser := region.NewParser(tables.RegionTokens, tables.GenericRegionToken)
	return &Pipeline{
		merger:     merge.NewMerger(resolver, parser, tables.PaletteSize),
		classifier: classify.NewClassifier(tables.CategoryTabs),
		matcher:    history.NewMatcher(),
		engine:     filter.NewEngine(tables.CategoryTabs, tables.SelectionCap),
		converter:  currency.NewConverter(tables.CNYMarkers),
	}
}

// Reconcile recomputes the canonical commodity view from scratch. It is a
// pure function of its input and safe to re-run on every tick.
func (p *Pipeline) Reconcile(in Input) Output {
	all := p.classified(in)
	for i := range all {
		all[i].History = p.matcher.Attach(&all[i], in.History, in.HistoryRange)
	}

	visible := p.engine.Visible(all, in.Cascade, in.Scope)
	views := make([]View, 0, len(visible))
	for _, c := range visible {
		views = append(views, p.render(c, in.Target, in.Rate))
	}
	return Output{All: all, Visible: views}
}

// Reseed recomputes the explicit selection for the scope carried by in,
// returning the replacement scope. Call it after the country or category tab
// changes so the stale selection cannot blank the narrowed view.
func (p *Pipeline) Reseed(in Input) schema.FilterScope {
	return p.engine.Reseed(p.classified(in), in.Cascade, in.Scope)
}

// SelectAll selects everything the active source and category filters allow.
func (p *Pipeline) SelectAll(in Input) schema.FilterScope {
	return p.engine.SelectAll(p.classified(in), in.Cascade, in.Scope)
}

func (p *Pipeline) classified(in Input) []schema.CanonicalCommodity {
	all := p.merger.Merge(in.Quotes)
	for i := range all {
		all[i].Category = p.classifier.Classify(all[i].CanonicalName, all[i].BackendCategory)
	}
	return all
}

// render formats the commodity's prices in the target currency. Conversion
// happens here and nowhere else, so no price is ever converted twice.
func (p *Pipeline) render(c schema.CanonicalCommodity, target currency.Currency, rate decimal.Decimal) View {
	view := View{
		Commodity:     c,
		DisplayPrice:  p.converter.Format(c.Price, c.Unit, target, rate),
		DisplayChange: c.ChangePercent.StringFixed(2) + "%",
	}
	for _, sq := range c.SourceQuotes {
		view.Sources = append(view.Sources, SourceView{
			RawName:      sq.RawName,
			HostLabel:    sq.HostLabel,
			URL:          sq.URL,
			DisplayPrice: p.converter.Format(sq.Price, sq.Unit, target, rate),
		})
	}
	for _, rv := range c.Regions {
		view.Regions = append(view.Regions, RegionView{
			RegionLabel:  rv.RegionLabel,
			DisplayPrice: p.converter.Format(rv.Price, rv.Unit, target, rate),
			ColorIndex:   rv.ColorIndex,
		})
	}
	return view
}
