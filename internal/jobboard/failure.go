package jobboard

import "fmt"

// FailureKind names a rule violation.
type FailureKind string

const (
	FailReplyOrMention   FailureKind = "reply_or_mention"
	FailTooFrequent      FailureKind = "too_frequent"
	FailTooManyEmojis    FailureKind = "too_many_emojis"
	FailTooManyLines     FailureKind = "too_many_lines"
	FailTooLong          FailureKind = "too_long"
	FailTooManyGaps      FailureKind = "too_many_gaps"
	FailMissingType      FailureKind = "missing_type"
	FailInconsistentType FailureKind = "inconsistent_type"
	FailWeb3Content      FailureKind = "web3_content"
	FailWeb3Poster       FailureKind = "web3_poster"
)

// Failure is a single rule violation. Only the fields relevant to its kind
// are set; failures are produced fresh per validation and never stored.
type Failure struct {
	Kind FailureKind

	// LastSentDays is set for too_frequent.
	LastSentDays int
	// Overage is set for too_many_lines and too_long.
	Overage int
	// Count is the offense count for web3_content and web3_poster.
	Count int
}

// Web3 reports whether the failure is part of the web3 escalation track.
func (f Failure) Web3() bool {
	return f.Kind == FailWeb3Content || f.Kind == FailWeb3Poster
}

// Explain renders the guidance shown to the author.
func (f Failure) Explain() string {
	switch f.Kind {
	case FailReplyOrMention:
		return "Job posts can't be replies or mention other members. Post a standalone message."
	case FailTooFrequent:
		return fmt.Sprintf("You already posted %d day(s) ago. The job board allows one post per week.", f.LastSentDays)
	case FailTooManyEmojis:
		return "Your post uses too many emojis. Keep it to at most one emoji per 150 characters."
	case FailTooManyLines:
		return fmt.Sprintf("Your post is %d line(s) over the limit. Tighten it up.", f.Overage)
	case FailTooLong:
		return fmt.Sprintf("Your post is %d character(s) over the limit. Tighten it up.", f.Overage)
	case FailTooManyGaps:
		return "Your post has too many blank lines relative to its content."
	case FailMissingType:
		return "Tag your post with [hiring] or [for-hire] so readers know which it is."
	case FailInconsistentType:
		return "A single post can't be both [hiring] and [for-hire]. Pick one."
	case FailWeb3Content:
		return "Blockchain, crypto and NFT topics are not allowed on this job board."
	case FailWeb3Poster:
		return fmt.Sprintf("You are on a cooldown for posting banned content (offense #%d). Wait it out.", f.Count)
	}
	return string(f.Kind)
}
