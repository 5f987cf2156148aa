package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/commodex/commodex/internal/schema"
)

// Tables holds the reconciliation lookup data: alias map, region tokens,
// category tabs, and currency markers. They are injected into the pipeline
// components rather than read from package globals so tests can substitute
// alternate tables.
type Tables struct {
	// Aliases maps raw source-specific commodity names to canonical names.
	Aliases map[string]string `yaml:"aliases"`

	// RegionTokens is the closed set of region qualifiers recognised inside
	// a trailing parenthesized group.
	RegionTokens []string `yaml:"regionTokens"`

	// GenericRegionToken additionally marks a name as regional when the
	// parenthesized group contains it, e.g. "地区".
	GenericRegionToken string `yaml:"genericRegionToken"`

	// PaletteSize bounds the deterministic color index assigned to region
	// variants and series at insertion time.
	PaletteSize int `yaml:"paletteSize"`

	// SelectionCap bounds how many commodities a reseeded selection takes.
	// Tabs with sub-tabs are exempt from the cap.
	SelectionCap int `yaml:"selectionCap"`

	// CategoryTabs declares the top-level categories in match order.
	CategoryTabs []schema.CategoryTab `yaml:"categoryTabs"`

	// CNYMarkers are the unit-string fragments implying a CNY-denominated quote.
	CNYMarkers []string `yaml:"cnyMarkers"`
}

// DefaultTables returns the built-in tables covering the metals and plastics
// commodity families.
func DefaultTables() Tables {
	return Tables{
		Aliases: map[string]string{
			"Gold":     "黄金",
			"COMEX黄金":  "黄金",
			"伦敦金":      "黄金",
			"Silver":   "白银",
			"COMEX白银":  "白银",
			"Copper":   "铜",
			"LME铜":     "铜",
			"沪铜":       "铜",
			"Aluminum": "铝",
			"LME铝":     "铝",
			"沪铝":       "铝",
			"WTI原油":    "原油",
			"布伦特原油":    "原油",
			"聚丙烯":      "PP",
			"聚乙烯":      "PE",
			"聚氯乙烯":     "PVC",
		},
		RegionTokens:       []string{"华东", "华北", "华南", "华中", "西南", "西北", "东北"},
		GenericRegionToken: "地区",
		PaletteSize:        8,
		SelectionCap:       6,
		CategoryTabs: []schema.CategoryTab{
			{
				ID:              "metals",
				Label:           "金属",
				MatchCategories: []string{"金属", "贵金属", "有色金属", "metals"},
				MatchKeywords:   []string{"黄金", "白银", "铂金", "钯金", "铜", "铝", "锌", "镍", "锡", "铅"},
			},
			{
				ID:              "energy",
				Label:           "能源",
				MatchCategories: []string{"能源", "energy"},
				MatchKeywords:   []string{"原油", "汽油", "柴油", "天然气", "煤", "燃料油"},
			},
			{
				ID:              "plastics",
				Label:           "塑料",
				MatchCategories: []string{"塑料", "化工", "plastics"},
				MatchKeywords:   []string{"PP", "PE", "PVC", "ABS", "PET", "塑料", "树脂"},
				SubTabs: []schema.SubTab{
					{ID: "PP", Label: "聚丙烯"},
					{ID: "PE", Label: "聚乙烯"},
					{ID: "PVC", Label: "聚氯乙烯"},
					{ID: "ABS", Label: "ABS"},
					{ID: "PET", Label: "聚酯"},
				},
			},
			{
				ID:              "agriculture",
				Label:           "农产品",
				MatchCategories: []string{"农产品", "agriculture"},
				MatchKeywords:   []string{"大豆", "玉米", "小麦", "棉花", "白糖", "豆粕"},
			},
		},
		CNYMarkers: []string{"元", "人民币", "¥", "￥", "RMB", "CNY"},
	}
}

// LoadTables reads tables from a YAML file, filling unset sections from the
// defaults. A missing file yields the defaults unchanged.
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tables, nil
		}
		return Tables{}, fmt.Errorf("read tables file: %w", err)
	}
	var loaded Tables
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return Tables{}, fmt.Errorf("parse tables file: %w", err)
	}
	if len(loaded.Aliases) > 0 {
		tables.Aliases = loaded.Aliases
	}
	if len(loaded.RegionTokens) > 0 {
		tables.RegionTokens = loaded.RegionTokens
	}
	if loaded.GenericRegionToken != "" {
		tables.GenericRegionToken = loaded.GenericRegionToken
	}
	if loaded.PaletteSize > 0 {
		tables.PaletteSize = loaded.PaletteSize
	}
	if loaded.SelectionCap > 0 {
		tables.SelectionCap = loaded.SelectionCap
	}
	if len(loaded.CategoryTabs) > 0 {
		tables.CategoryTabs = loaded.CategoryTabs
	}
	if len(loaded.CNYMarkers) > 0 {
		tables.CNYMarkers = loaded.CNYMarkers
	}
	return tables, nil
}

// TabByID returns the category tab with the given id.
func (t Tables) TabByID(id string) (schema.CategoryTab, bool) {
	for _, tab := range t.CategoryTabs {
		if tab.ID == id {
			return tab, true
		}
	}
	return schema.CategoryTab{}, false
}
