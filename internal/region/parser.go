// Package region detects and strips region-qualifier suffixes from commodity names.
package region

import "strings"

// DefaultLabel is returned when a region label cannot be extracted.
const DefaultLabel = "default"

// Parser recognises a trailing parenthesized qualifier whose contents mention
// one of a closed set of region tokens, or the generic region token. Both
// ASCII and full-width parentheses appear in scraped names.
type Parser struct {
	tokens  []string
	generic string
}

// NewParser builds a parser over the closed region-token set. generic is the
// catch-all token (e.g. "地区") that also marks a qualifier as regional.
func NewParser(tokens []string, generic string) *Parser {
	return &Parser{
		tokens:  append([]string(nil), tokens...),
		generic: generic,
	}
}

// IsRegional reports whether name carries a trailing region qualifier.
// Running it on an already-stripped BaseName result always reports false.
func (p *Parser) IsRegional(name string) bool {
	_, label, ok := splitTrailingGroup(name)
	if !ok {
		return false
	}
	return p.labelIsRegion(label)
}

// BaseName strips trailing region qualifiers, returning name unchanged when
// none is present. Scraped names occasionally stack qualifiers, so stripping
// repeats until the remainder is no longer regional.
func (p *Parser) BaseName(name string) string {
	for {
		base, label, ok := splitTrailingGroup(name)
		if !ok || !p.labelIsRegion(label) {
			return name
		}
		name = strings.TrimSpace(base)
	}
}

// RegionLabel extracts the qualifier contents, falling back to DefaultLabel
// when extraction fails.
func (p *Parser) RegionLabel(name string) string {
	_, label, ok := splitTrailingGroup(name)
	if !ok || !p.labelIsRegion(label) {
		return DefaultLabel
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return DefaultLabel
	}
	return label
}

func (p *Parser) labelIsRegion(label string) bool {
	if label == "" {
		return false
	}
	for _, token := range p.tokens {
		if strings.Contains(label, token) {
			return true
		}
	}
	return p.generic != "" && strings.Contains(label, p.generic)
}

// splitTrailingGroup separates "base(label)" into its parts. It accepts ASCII
// and full-width parentheses but only at the very end of the name.
func splitTrailingGroup(name string) (base, label string, ok bool) {
	trimmed := strings.TrimSpace(name)
	for _, pair := range [...][2]string{{"(", ")"}, {"（", "）"}} {
		open, close := pair[0], pair[1]
		if !strings.HasSuffix(trimmed, close) {
			continue
		}
		idx := strings.LastIndex(trimmed, open)
		if idx < 0 {
			continue
		}
		inner := trimmed[idx+len(open) : len(trimmed)-len(close)]
		return trimmed[:idx], inner, true
	}
	return name, "", false
}
