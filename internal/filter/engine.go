// Package filter evaluates the cascading scope narrowing: country and website,
// category, sub-category, then explicit selection.
package filter

import (
	"github.com/commodex/commodex/internal/classify"
	"github.com/commodex/commodex/internal/schema"
)

// Engine computes the visible commodity set for a scope and keeps the
// explicit selection consistent as the scope narrows. It expects commodities
// whose Category field already carries the classified tab id.
type Engine struct {
	subCategorized map[string]bool
	selectionCap   int
}

// NewEngine builds an engine over the declared tabs. selectionCap bounds
// reseeded selections; tabs that declare sub-tabs are exempt from the cap.
func NewEngine(tabs []schema.CategoryTab, selectionCap int) *Engine {
	subCategorized := make(map[string]bool, len(tabs))
	for _, tab := range tabs {
		if len(tab.SubTabs) > 0 {
			subCategorized[tab.ID] = true
		}
	}
	if selectionCap <= 0 {
		selectionCap = 1
	}
	return &Engine{subCategorized: subCategorized, selectionCap: selectionCap}
}

// Visible runs every stage, including the explicit-selection intersection.
// An empty selection is treated as "nothing explicitly chosen" and passes the
// prior stage through, so a missing reseed degrades to more data, not a blank
// view.
func (e *Engine) Visible(all []schema.CanonicalCommodity, cascade schema.SourceCascade, scope schema.FilterScope) []schema.CanonicalCommodity {
	narrowed := e.scoped(all, cascade, scope)
	if len(scope.Selection) == 0 {
		return narrowed
	}
	out := narrowed[:0:0]
	for _, c := range narrowed {
		if scope.Selected(c.CanonicalName) {
			out = append(out, c)
		}
	}
	return out
}

// scoped applies the country/website, category, and sub-category stages.
func (e *Engine) scoped(all []schema.CanonicalCommodity, cascade schema.SourceCascade, scope schema.FilterScope) []schema.CanonicalCommodity {
	allowedNames, nameFiltered := websiteNameSet(cascade, scope)
	var out []schema.CanonicalCommodity
	for _, c := range all {
		if nameFiltered && !anyNameAllowed(&c, allowedNames) {
			continue
		}
		if scope.CategoryTab != schema.CategoryAll && c.Category != scope.CategoryTab {
			continue
		}
		if scope.SubTab != "" && e.subCategorized[scope.CategoryTab] &&
			!classify.MatchesSubTab(c.CanonicalName, scope.SubTab) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Reseed replaces the explicit selection with the first N commodities visible
// under the new scope. N is unbounded for sub-categorized tabs so their chart
// can show every sub-category member, and capped otherwise. Call it whenever
// the country or category tab changes; filtering the old selection instead
// would let a stale, invisible selection empty the chart.
func (e *Engine) Reseed(all []schema.CanonicalCommodity, cascade schema.SourceCascade, scope schema.FilterScope) schema.FilterScope {
	visible := e.scoped(all, cascade, scope)
	limit := e.selectionCap
	if e.subCategorized[scope.CategoryTab] {
		limit = len(visible)
	}
	next := scope.Clone()
	next.Selection = make(map[string]struct{}, limit)
	for i, c := range visible {
		if i >= limit {
			break
		}
		next.Selection[c.CanonicalName] = struct{}{}
	}
	return next
}

// SelectAll selects every commodity currently allowed by the active source,
// category, and sub-category filters, never the global set.
func (e *Engine) SelectAll(all []schema.CanonicalCommodity, cascade schema.SourceCascade, scope schema.FilterScope) schema.FilterScope {
	visible := e.scoped(all, cascade, scope)
	next := scope.Clone()
	next.Selection = make(map[string]struct{}, len(visible))
	for _, c := range visible {
		next.Selection[c.CanonicalName] = struct{}{}
	}
	return next
}

// websiteNameSet collects the commodity names declared by the selected
// websites. The widest scope (all countries, no website selection) applies no
// name filtering; an empty website selection within a country means every
// website in that country.
func websiteNameSet(cascade schema.SourceCascade, scope schema.FilterScope) (map[string]struct{}, bool) {
	if scope.Country == schema.CountryAll && len(scope.WebsiteIDs) == 0 {
		return nil, false
	}
	sites := cascade.WebsitesIn(scope.Country)
	names := make(map[string]struct{})
	for _, site := range sites {
		if len(scope.WebsiteIDs) > 0 {
			if _, ok := scope.WebsiteIDs[site.ID]; !ok {
				continue
			}
		}
		for _, name := range site.Commodities {
			names[name] = struct{}{}
		}
	}
	return names, true
}

func anyNameAllowed(c *schema.CanonicalCommodity, allowed map[string]struct{}) bool {
	for _, name := range c.LookupNames() {
		if _, ok := allowed[name]; ok {
			return true
		}
	}
	return false
}
