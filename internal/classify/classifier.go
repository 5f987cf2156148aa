// Package classify assigns canonical commodities to category tabs.
package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/commodex/commodex/internal/schema"
)

// shortKeywordLimit is the rune length at or below which a keyword only
// matches on a word boundary. Short tickers like "PC" or "PE" must not match
// inside unrelated longer words.
const shortKeywordLimit = 3

// Classifier resolves a commodity's category tab. The backend-assigned
// category is authoritative; keyword heuristics are the fallback, scanned in
// the declared tab and keyword order.
type Classifier struct {
	tabs []schema.CategoryTab
}

// NewClassifier builds a classifier over the declared tabs.
func NewClassifier(tabs []schema.CategoryTab) *Classifier {
	return &Classifier{tabs: append([]schema.CategoryTab(nil), tabs...)}
}

// Classify returns the category tab id for the commodity, or
// schema.CategoryAll when nothing matches.
func (c *Classifier) Classify(canonicalName, backendCategory string) string {
	if backend := strings.TrimSpace(backendCategory); backend != "" {
		for _, tab := range c.tabs {
			for _, cat := range tab.MatchCategories {
				if strings.EqualFold(cat, backend) {
					return tab.ID
				}
			}
		}
	}
	for _, tab := range c.tabs {
		for _, keyword := range tab.MatchKeywords {
			if KeywordMatches(canonicalName, keyword) {
				return tab.ID
			}
		}
	}
	return schema.CategoryAll
}

// MatchesSubTab applies the sub-category prefix test against an
// already-classified commodity name.
func MatchesSubTab(canonicalName, subTabID string) bool {
	if subTabID == "" {
		return true
	}
	return strings.HasPrefix(strings.ToUpper(canonicalName), strings.ToUpper(subTabID))
}

// KeywordMatches reports whether keyword occurs in name, case-insensitively.
// Keywords of up to three runes only match when bounded by non-alphanumeric
// characters on both sides; longer keywords match as plain substrings.
func KeywordMatches(name, keyword string) bool {
	if keyword == "" {
		return false
	}
	upperName := strings.ToUpper(name)
	upperKeyword := strings.ToUpper(keyword)
	if utf8.RuneCountInString(keyword) > shortKeywordLimit {
		return strings.Contains(upperName, upperKeyword)
	}
	firstRune, _ := utf8.DecodeRuneInString(upperKeyword)
	lastRune, _ := utf8.DecodeLastRuneInString(upperKeyword)
	for offset := 0; ; {
		idx := strings.Index(upperName[offset:], upperKeyword)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(upperKeyword)
		if boundedAt(upperName, start, end, firstRune, lastRune) {
			return true
		}
		offset = start + 1
	}
}

// boundedAt reports whether the [start, end) occurrence sits on a word
// boundary. A side is unbounded only when the keyword's edge rune and its
// neighbour are both ASCII alphanumerics: "PE" inside "SPECIAL" fails, while
// "PE树脂" and "黄金T+D" pass because the script changes at the edge.
func boundedAt(s string, start, end int, firstRune, lastRune rune) bool {
	if start > 0 && isASCIIAlphanumeric(firstRune) {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isASCIIAlphanumeric(r) {
			return false
		}
	}
	if end < len(s) && isASCIIAlphanumeric(lastRune) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isASCIIAlphanumeric(r) {
			return false
		}
	}
	return true
}

func isASCIIAlphanumeric(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
