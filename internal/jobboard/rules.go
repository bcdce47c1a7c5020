package jobboard

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"jobwarden/internal/core"
)

// Formatting limits per post type.
const (
	forHireMaxLines = 8
	hiringMaxLines  = 18
	forHireMaxChars = 350
	hiringMaxChars  = 1800

	charsPerEmoji = 150
)

var web3Pattern = regexp.MustCompile(`\b(?:web3|crypto(?:currency|currencies)?|blockchains?|nfts?|defi|dao|tokens?|tokenomics|smart contracts?|metaverse|airdrops?|solidity|minting|hodl|altcoins?|stablecoins?)\b`)

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// RuleSet runs every validator over the parsed posts of a message and
// concatenates the failures. An empty result means "accept". Validators
// never touch message content; the web3 validator is the one permitted to
// mutate state, on the offender cache it owns a reference to.
type RuleSet struct {
	cache     *PostCache
	offenders *OffenderCache
}

func NewRuleSet(cache *PostCache, offenders *OffenderCache) *RuleSet {
	return &RuleSet{cache: cache, offenders: offenders}
}

func (r *RuleSet) Validate(posts []Post, msg core.Message, now time.Time) []Failure {
	var failures []Failure
	failures = append(failures, r.participation(msg)...)
	failures = append(failures, r.frequency(msg, now)...)
	failures = append(failures, r.formatting(posts)...)
	failures = append(failures, r.web3(posts, msg, now)...)
	return failures
}

// participation: the job board is not a discussion channel. Replies and
// mentions of anyone but the author himself are out.
func (r *RuleSet) participation(msg core.Message) []Failure {
	if msg.ReferenceID != "" {
		return []Failure{{Kind: FailReplyOrMention}}
	}
	for _, m := range msg.Mentions {
		if m != msg.AuthorID {
			return []Failure{{Kind: FailReplyOrMention}}
		}
	}
	return nil
}

// frequency: one cached entry per author at a time. Whether this is fatal
// is the orchestrator's call.
func (r *RuleSet) frequency(msg core.Message, now time.Time) []Failure {
	prev, ok := r.cache.ByAuthor(msg.AuthorID, now)
	if !ok {
		return nil
	}
	days := int(now.Sub(prev.CreatedAt).Hours() / 24)
	return []Failure{{Kind: FailTooFrequent, LastSentDays: days}}
}

func (r *RuleSet) formatting(posts []Post) []Failure {
	var failures []Failure

	typed := false
	sawHiring := false
	sawForHire := false

	for _, p := range posts {
		failures = append(failures, formatPost(p)...)

		if p.HasTag(TagHiring) {
			sawHiring = true
		}
		if p.HasTag(TagForHire) {
			sawForHire = true
		}
		if p.Typed() {
			typed = true
		}
	}

	if !typed {
		failures = append(failures, Failure{Kind: FailMissingType})
	}
	if sawHiring && sawForHire {
		failures = append(failures, Failure{Kind: FailInconsistentType})
	}

	return failures
}

func formatPost(p Post) []Failure {
	var failures []Failure

	maxLines, maxChars := forHireMaxLines, forHireMaxChars
	if p.Type() == TypeHiring {
		maxLines, maxChars = hiringMaxLines, hiringMaxChars
	}

	lines := strings.Split(p.Description, "\n")
	content := 0
	gaps := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			gaps++
		} else {
			content++
		}
	}

	if content > maxLines {
		failures = append(failures, Failure{Kind: FailTooManyLines, Overage: content - maxLines})
	}

	length := len([]rune(p.Description))
	if length > maxChars {
		failures = append(failures, Failure{Kind: FailTooLong, Overage: length - maxChars})
	}

	if emojis := countEmojis(p.Description); emojis > 0 {
		// Ceiling division with a floor of one: a post shorter than 150
		// characters still gets a single emoji.
		allowed := (length + charsPerEmoji - 1) / charsPerEmoji
		if allowed < 1 {
			allowed = 1
		}
		if emojis > allowed {
			failures = append(failures, Failure{Kind: FailTooManyEmojis})
		}
	}

	if content > 0 && gaps > content/2 && gaps > 1 {
		failures = append(failures, Failure{Kind: FailTooManyGaps})
	}

	return failures
}

// web3 is a two-state machine per author. A live offender fails instantly
// and escalates, regardless of the new content; otherwise matching content
// opens a fresh record.
func (r *RuleSet) web3(posts []Post, msg core.Message, now time.Time) []Failure {
	if _, live := r.offenders.Active(msg.AuthorID, now); live {
		count := r.offenders.Record(msg.AuthorID, now)
		failures := make([]Failure, len(posts))
		for i := range posts {
			failures[i] = Failure{Kind: FailWeb3Poster, Count: count}
		}
		return failures
	}

	var failures []Failure
	matched := false
	for _, p := range posts {
		if web3Pattern.MatchString(normalizeForMatch(p.Description)) {
			matched = true
			failures = append(failures, Failure{Kind: FailWeb3Content, Count: 1})
		}
	}
	if matched {
		r.offenders.Record(msg.AuthorID, now)
	}
	return failures
}

// normalizeForMatch lowercases and folds diacritics, then drops everything
// but letters, digits and single spaces, so zero-width and leetspeak-ish
// padding can't dodge the banned-topic pattern.
func normalizeForMatch(s string) string {
	folded, _, err := transform.String(foldDiacritics, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		default:
			if !space && b.Len() > 0 {
				b.WriteRune(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// countEmojis scans for runes in the common emoji planes. No pack dependency
// covers emoji detection, so this stays a rune-range scan.
func countEmojis(s string) int {
	count := 0
	for _, r := range s {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF, // pictographs, transport, supplemental
			r >= 0x2600 && r <= 0x27BF, // misc symbols, dingbats
			r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators
			count++
		}
	}
	return count
}
