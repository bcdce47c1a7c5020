package jobboard

import (
	"regexp"
	"strings"
)

// Canonical tags. Everything else passes through simplified.
const (
	TagHiring  = "hiring"
	TagForHire = "for-hire"
)

var tagNonWord = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeTag lowercases a free-text tag, strips everything but letters and
// digits and maps the known synonyms onto the canonical vocabulary. The
// result is stable under repeated application.
func NormalizeTag(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	t = tagNonWord.ReplaceAllString(t, "")

	switch t {
	case "forhire":
		return TagForHire
	case "hiring", "hire":
		return TagHiring
	}

	return t
}

func normalizeTags(raw []string) []string {
	var tags []string
	seen := map[string]struct{}{}

	for _, r := range raw {
		t := NormalizeTag(r)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}

	return tags
}
