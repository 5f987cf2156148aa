package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/commodex/commodex/internal/schema"
)

func newTestClassifier() *Classifier {
	return NewClassifier([]schema.CategoryTab{
		{
			ID:              "metals",
			MatchCategories: []string{"金属", "metals"},
			MatchKeywords:   []string{"黄金", "白银", "铜", "铝"},
		},
		{
			ID:              "plastics",
			MatchCategories: []string{"塑料"},
			MatchKeywords:   []string{"PP", "PE", "PVC", "塑料"},
			SubTabs: []schema.SubTab{
				{ID: "PP"}, {ID: "PE"}, {ID: "PVC"},
			},
		},
	})
}

func TestBackendCategoryIsAuthoritative(t *testing.T) {
	c := newTestClassifier()
	// The name would keyword-match metals, but the backend category wins.
	require.Equal(t, "plastics", c.Classify("铜包装膜", "塑料"))
	require.Equal(t, "metals", c.Classify("unknown name", "Metals"))
}

func TestKeywordFallbackInDeclaredOrder(t *testing.T) {
	c := newTestClassifier()
	require.Equal(t, "metals", c.Classify("沪铜", ""))
	require.Equal(t, "plastics", c.Classify("PE树脂", ""))
	require.Equal(t, "metals", c.Classify("黄金T+D", "不存在的分类"))
}

func TestUnmatchedFallsBackToAll(t *testing.T) {
	c := newTestClassifier()
	require.Equal(t, schema.CategoryAll, c.Classify("玉米", ""))
	require.Equal(t, schema.CategoryAll, c.Classify("", ""))
}

func TestShortKeywordsRequireWordBoundary(t *testing.T) {
	// "PE" inside "SPECIAL" must not match; bounded occurrences must.
	require.False(t, KeywordMatches("SPECIAL", "PE"))
	require.True(t, KeywordMatches("PE树脂", "PE"))
	require.True(t, KeywordMatches("国产PE", "PE"))
	require.True(t, KeywordMatches("PE-100", "PE"))
	require.False(t, KeywordMatches("COPPER", "PP"))
	require.True(t, KeywordMatches("PP粉料", "PP"))
	require.False(t, KeywordMatches("PVC2", "PVC"))
	require.True(t, KeywordMatches("pvc管材", "PVC"))
}

func TestLongKeywordsMatchAsSubstring(t *testing.T) {
	require.True(t, KeywordMatches("改性塑料颗粒", "塑料"))
	require.True(t, KeywordMatches("advanced polypropylene", "POLYPROPYLENE"))
}

func TestKeywordMatchRetriesLaterOccurrences(t *testing.T) {
	// First occurrence is unbounded, a later one is bounded.
	require.True(t, KeywordMatches("SPECIAL PE", "PE"))
}

func TestMatchesSubTabPrefix(t *testing.T) {
	require.True(t, MatchesSubTab("PE树脂", "PE"))
	require.True(t, MatchesSubTab("pvc管材", "PVC"))
	require.False(t, MatchesSubTab("PP粉料", "PE"))
	require.True(t, MatchesSubTab("anything", ""))
}
