package ordering

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePrefix_SimplePrefix_SplitsPrefixAndRest(t *testing.T) {
	prefix, rest, ok := ParsePrefix("2-Features.md")
	require.True(t, ok)
	require.Equal(t, "2", prefix)
	require.Equal(t, "Features.md", rest)
}

func TestParsePrefix_DottedPrefix_SplitsAllSegments(t *testing.T) {
	prefix, rest, ok := ParsePrefix("2.1.3-Deep")
	require.True(t, ok)
	require.Equal(t, "2.1.3", prefix)
	require.Equal(t, "Deep", rest)
}

func TestParsePrefix_NoMatch_ReturnsFullName(t *testing.T) {
	cases := []string{"README.md", "-leading.md", "2.md", "a1-x.md", "2.-x.md", ""}
	for _, name := range cases {
		prefix, rest, ok := ParsePrefix(name)
		require.False(t, ok, "name %q", name)
		require.Empty(t, prefix)
		require.Equal(t, name, rest)
	}
}

func TestCompare_NumericNotLexicographic(t *testing.T) {
	require.Negative(t, Compare("2-x.md", "10-x.md"))
	require.Positive(t, Compare("10-x.md", "2-x.md"))
}

func TestCompare_PrefixedSortsBeforeUnprefixed(t *testing.T) {
	require.Negative(t, Compare("99-z.md", "about.md"))
	require.Positive(t, Compare("about.md", "1-a.md"))
}

func TestCompare_UnprefixedCaseInsensitive(t *testing.T) {
	require.Negative(t, Compare("Alpha.md", "beta.md"))
	require.Zero(t, Compare("Beta.md", "beta.md"))
}

func TestCompare_DottedPrefixOrdering(t *testing.T) {
	names := []string{"2.10-j.md", "2.1-a.md", "10-x.md", "2-b.md", "2.2-c.md", "1-a.md"}
	sort.Slice(names, func(i, j int) bool { return Compare(names[i], names[j]) < 0 })
	require.Equal(t, []string{"1-a.md", "2-b.md", "2.1-a.md", "2.2-c.md", "2.10-j.md", "10-x.md"}, names)
}

func TestComparePrefixes_ShorterPrefixFirst(t *testing.T) {
	require.Negative(t, ComparePrefixes("2", "2.1"))
	require.Positive(t, ComparePrefixes("2.1.1", "2.1"))
	require.Zero(t, ComparePrefixes("3.4", "3.4"))
}

func TestCompareIDs_NumericBeforeTextual(t *testing.T) {
	ids := []string{"10", "2.1", "About", "2", "2.10", "2.2"}
	sort.Slice(ids, func(i, j int) bool { return CompareIDs(ids[i], ids[j]) < 0 })
	require.Equal(t, []string{"2", "2.1", "2.2", "2.10", "10", "About"}, ids)
}

func TestTitle_ReplacesSeparatorsAndTitleCases(t *testing.T) {
	require.Equal(t, "Getting Started", Title("getting-started"))
	require.Equal(t, "Feature One", Title("feature_one"))
	require.Equal(t, "Hero", Title("Hero"))
	require.Equal(t, "", Title(""))
}
