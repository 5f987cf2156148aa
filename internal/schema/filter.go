package schema

const (
	// CountryAll selects every country in the sources cascade.
	CountryAll = "all"
	// CategoryAll is the catch-all category tab id.
	CategoryAll = "all"
)

// SubTab is one sub-category of a category tab, matched by canonical-name prefix.
type SubTab struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// CategoryTab is static configuration for one top-level category.
type CategoryTab struct {
	ID              string   `yaml:"id"`
	Label           string   `yaml:"label"`
	MatchCategories []string `yaml:"matchCategories"`
	MatchKeywords   []string `yaml:"matchKeywords"`
	SubTabs         []SubTab `yaml:"subTabs"`
}

// WebsiteSource describes one scraped website and the commodity names it declares.
type WebsiteSource struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Country     string   `json:"country"`
	Commodities []string `json:"commodities"`
}

// SourceCascade is the country → website → commodity-list hierarchy returned
// by the data-sources call.
type SourceCascade struct {
	Websites   []WebsiteSource `json:"websites"`
	Categories []string        `json:"categories"`
}

// WebsitesIn returns the websites declared for a country; CountryAll returns all.
func (c SourceCascade) WebsitesIn(country string) []WebsiteSource {
	if country == "" || country == CountryAll {
		return c.Websites
	}
	var out []WebsiteSource
	for _, w := range c.Websites {
		if w.Country == country {
			out = append(out, w)
		}
	}
	return out
}

// FilterScope is the user-driven narrowing state. It is the only mutable state
// in the pipeline; every derived set is recomputed from it and the latest data.
type FilterScope struct {
	Country     string
	WebsiteIDs  map[string]struct{}
	CategoryTab string
	SubTab      string
	Selection   map[string]struct{}
}

// NewFilterScope returns the widest scope: all countries, all websites, the
// catch-all category, no explicit selection.
func NewFilterScope() FilterScope {
	return FilterScope{
		Country:     CountryAll,
		WebsiteIDs:  make(map[string]struct{}),
		CategoryTab: CategoryAll,
		SubTab:      "",
		Selection:   make(map[string]struct{}),
	}
}

// Clone returns a deep copy of the scope.
func (s FilterScope) Clone() FilterScope {
	clone := s
	clone.WebsiteIDs = make(map[string]struct{}, len(s.WebsiteIDs))
	for id := range s.WebsiteIDs {
		clone.WebsiteIDs[id] = struct{}{}
	}
	clone.Selection = make(map[string]struct{}, len(s.Selection))
	for name := range s.Selection {
		clone.Selection[name] = struct{}{}
	}
	return clone
}

// Selected reports whether the canonical name is explicitly selected.
func (s FilterScope) Selected(name string) bool {
	_, ok := s.Selection[name]
	return ok
}
