package jobboard

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// moderatedSet tracks message IDs this system deleted itself, so that the
// resulting delete events aren't mistaken for author or staff deletions.
// Consume is a one-shot: the flag clears when checked.
type moderatedSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newModeratedSet() *moderatedSet {
	return &moderatedSet{ids: map[string]struct{}{}}
}

func (s *moderatedSet) Mark(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[messageID] = struct{}{}
}

func (s *moderatedSet) Consume(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.ids[messageID]
	if ok {
		delete(s.ids, messageID)
	}
	return ok
}

type reportKey struct {
	authorID string
	digest   string
}

type outstandingReport struct {
	ThreadID  string
	MessageID string
	Warnings  int
	At        time.Time

	// RejectedType remembers what the rejected post claimed to be, for
	// spotting tag-switching on edit.
	RejectedType PostType
}

// reportLog deduplicates failure reports: one outstanding report per
// (author, normalized content) within the window, updated in place with a
// warning counter instead of posting again.
type reportLog struct {
	mu sync.Mutex

	window  time.Duration
	reports map[reportKey]*outstandingReport
}

func newReportLog(window time.Duration) *reportLog {
	return &reportLog{window: window, reports: map[reportKey]*outstandingReport{}}
}

func contentDigest(content string) string {
	sum := sha256.Sum256([]byte(normalizeForMatch(content)))
	return hex.EncodeToString(sum[:8])
}

func (l *reportLog) Get(authorID, digest string, now time.Time) (*outstandingReport, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rep, ok := l.reports[reportKey{authorID, digest}]
	if !ok {
		return nil, false
	}
	if now.Sub(rep.At) > l.window {
		delete(l.reports, reportKey{authorID, digest})
		return nil, false
	}
	return rep, true
}

func (l *reportLog) Put(authorID, digest string, rep *outstandingReport) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reports[reportKey{authorID, digest}] = rep
}

// LastRejection returns the author's most recent outstanding report within
// the window, regardless of content digest.
func (l *reportLog) LastRejection(authorID string, now time.Time) (*outstandingReport, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var latest *outstandingReport
	for key, rep := range l.reports {
		if key.authorID != authorID {
			continue
		}
		if now.Sub(rep.At) > l.window {
			delete(l.reports, key)
			continue
		}
		if latest == nil || rep.At.After(latest.At) {
			latest = rep
		}
	}
	return latest, latest != nil
}
