package jobboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTag(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Hiring":    "hiring",
		"HIRE":      "hiring",
		"for hire":  "for-hire",
		"For-Hire":  "for-hire",
		"FORHIRE":   "for-hire",
		"Remote!":   "remote",
		"C++":       "c",
		"  senior ": "senior",
		"":          "",
		"---":       "",
	}

	for in, want := range cases {
		require.Equal(t, want, NormalizeTag(in), "input %q", in)
	}
}

func TestNormalizeTagIdempotent(t *testing.T) {
	t.Parallel()

	samples := []string{"Hiring", "hire", "for hire", "FORHIRE", "Remote!", "golang", ""}

	for _, s := range samples {
		once := NormalizeTag(s)
		require.Equal(t, once, NormalizeTag(once), "input %q", s)
	}
}

func TestNormalizeTagsDeduplicates(t *testing.T) {
	t.Parallel()

	tags := normalizeTags([]string{"Hiring", "hire", "remote", "Remote", "", "!!"})

	require.Equal(t, []string{"hiring", "remote"}, tags)
}
