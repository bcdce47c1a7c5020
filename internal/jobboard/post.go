package jobboard

import (
	"regexp"
	"strings"
	"time"
)

// PostType classifies a post for aging and formatting limits.
type PostType string

const (
	TypeHiring  PostType = "hiring"
	TypeForHire PostType = "for-hire"
)

// Post is a single job advertisement extracted from a message. Posts are
// values and are never mutated after parsing.
type Post struct {
	Tags        []string
	Description string
}

func (p Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Typed reports whether the post carries a recognized hiring/for-hire tag.
func (p Post) Typed() bool {
	return p.HasTag(TagHiring) || p.HasTag(TagForHire)
}

// Type derives the post type from its tags. A post missing both recognized
// tags counts as for-hire for aging purposes.
func (p Post) Type() PostType {
	if p.HasTag(TagHiring) {
		return TypeHiring
	}
	return TypeForHire
}

// StoredPost is a cache entry: one accepted message on the job board.
type StoredPost struct {
	AuthorID  string
	ChannelID string
	MessageID string
	CreatedAt time.Time
	Type      PostType

	Tags        []string
	Description string
}

var bracketTags = regexp.MustCompile(`^(?:\s*\[[^\[\]]*\])+`)
var bracketTag = regexp.MustCompile(`\[([^\[\]]*)\]`)

// Parse splits raw message content into one or more posts. A line carrying
// pipe-delimited (`| A | B |`) or bracket-delimited (`[A][B]`) tags starts a
// new post; everything until the next tag line is its description. Text
// trailing a closing bracket on the same line belongs to the description.
// Parse always returns at least one post and never fails.
func Parse(raw string) []Post {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var posts []Post
	cur := Post{}
	var desc []string
	dirty := false

	flush := func() {
		cur.Description = collapseBlanks(desc)
		posts = append(posts, cur)
		cur = Post{}
		desc = nil
	}

	for _, line := range lines {
		tags, rest, ok := parseTagLine(line)
		if ok {
			if dirty {
				flush()
			}
			cur.Tags = tags
			dirty = true
			if rest != "" {
				desc = append(desc, rest)
			}
			continue
		}

		desc = append(desc, line)
		if strings.TrimSpace(line) != "" {
			dirty = true
		}
	}

	flush()
	return posts
}

// parseTagLine extracts tags from a line, returning the leftover text for
// the bracket syntax (pipe tag lines consume the whole line).
func parseTagLine(line string) (tags []string, rest string, ok bool) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, "|") && strings.Count(trimmed, "|") >= 2 {
		var raw []string
		for _, seg := range strings.Split(trimmed, "|") {
			if s := strings.TrimSpace(seg); s != "" {
				raw = append(raw, s)
			}
		}
		tags = normalizeTags(raw)
		return tags, "", len(tags) > 0
	}

	if loc := bracketTags.FindStringIndex(trimmed); loc != nil {
		head, tail := trimmed[:loc[1]], strings.TrimSpace(trimmed[loc[1]:])

		var raw []string
		for _, m := range bracketTag.FindAllStringSubmatch(head, -1) {
			raw = append(raw, m[1])
		}
		tags = normalizeTags(raw)
		return tags, tail, len(tags) > 0
	}

	return nil, "", false
}

// collapseBlanks trims the description and collapses runs of blank lines
// into a single paragraph break.
func collapseBlanks(lines []string) string {
	var out []string
	blank := false

	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
