package jobboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePipeTags(t *testing.T) {
	t.Parallel()

	posts := Parse("| A | B |")

	require.Len(t, posts, 1)
	require.Equal(t, []string{"a", "b"}, posts[0].Tags)
	require.Empty(t, posts[0].Description)
}

func TestParseBracketTags(t *testing.T) {
	t.Parallel()

	posts := Parse("[hiring]\n\nLine1\n\nLine2")

	require.Len(t, posts, 1)
	require.Equal(t, []string{"hiring"}, posts[0].Tags)
	require.Equal(t, "Line1\n\nLine2", posts[0].Description)
}

func TestParseTrailingTextAfterBrackets(t *testing.T) {
	t.Parallel()

	posts := Parse("[for hire] Senior Go developer\nRemote, EU time zones")

	require.Len(t, posts, 1)
	require.Equal(t, []string{"for-hire"}, posts[0].Tags)
	require.Equal(t, "Senior Go developer\nRemote, EU time zones", posts[0].Description)
}

func TestParseCollapsesBlankLines(t *testing.T) {
	t.Parallel()

	posts := Parse("[hiring]\nFirst paragraph\n\n\n\nSecond paragraph")

	require.Len(t, posts, 1)
	require.Equal(t, "First paragraph\n\nSecond paragraph", posts[0].Description)
}

func TestParseEmptyInput(t *testing.T) {
	t.Parallel()

	posts := Parse("")

	require.Len(t, posts, 1)
	require.Empty(t, posts[0].Tags)
	require.Empty(t, posts[0].Description)
}

func TestParseMultiplePosts(t *testing.T) {
	t.Parallel()

	posts := Parse("[hiring] Backend engineer\nCompetitive salary\n[for hire]\nI build backends")

	require.Len(t, posts, 2)
	require.Equal(t, []string{"hiring"}, posts[0].Tags)
	require.Equal(t, "Backend engineer\nCompetitive salary", posts[0].Description)
	require.Equal(t, []string{"for-hire"}, posts[1].Tags)
	require.Equal(t, "I build backends", posts[1].Description)
}

func TestParseNoTags(t *testing.T) {
	t.Parallel()

	posts := Parse("just some text\nwith no tags at all")

	require.Len(t, posts, 1)
	require.Empty(t, posts[0].Tags)
	require.Equal(t, "just some text\nwith no tags at all", posts[0].Description)
}

func TestParseCollapsesDuplicateTags(t *testing.T) {
	t.Parallel()

	posts := Parse("[hiring][Hiring][remote][Remote!]")

	require.Len(t, posts, 1)
	require.Equal(t, []string{"hiring", "remote"}, posts[0].Tags)
}

func TestPostType(t *testing.T) {
	t.Parallel()

	require.Equal(t, TypeHiring, Post{Tags: []string{"hiring"}}.Type())
	require.Equal(t, TypeForHire, Post{Tags: []string{"for-hire"}}.Type())
	require.Equal(t, TypeForHire, Post{}.Type())
}
