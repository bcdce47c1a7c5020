package jobboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"jobwarden/internal/config"
	"jobwarden/internal/core"
)

type sentMessage struct {
	ChannelID string
	Content   string
}

type timeoutCall struct {
	UserID   string
	Duration time.Duration
}

// fakeSource records every remote call and serves seeded channel history,
// newest first, paginated the way the chat API does.
type fakeSource struct {
	mu sync.Mutex

	history []core.Message

	deleted  []string
	sent     []sentMessage
	edited   []sentMessage
	threads  []string
	timeouts []timeoutCall

	deleteErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{}
}

func (f *fakeSource) seedHistory(msgs ...core.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = msgs
}

func (f *fakeSource) RecentMessages(_ context.Context, _ string, limit int, before string) ([]core.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := 0
	if before != "" {
		for i, m := range f.history {
			if m.ID == before {
				start = i + 1
				break
			}
		}
	}
	if start >= len(f.history) {
		return nil, nil
	}

	end := start + limit
	if end > len(f.history) {
		end = len(f.history)
	}
	return f.history[start:end], nil
}

func (f *fakeSource) SendMessage(_ context.Context, channelID, content string) (core.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Content: content})
	return core.Message{ID: fmt.Sprintf("sent-%d", len(f.sent)), ChannelID: channelID}, nil
}

func (f *fakeSource) EditMessage(_ context.Context, channelID, _, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.edited = append(f.edited, sentMessage{ChannelID: channelID, Content: content})
	return nil
}

func (f *fakeSource) DeleteMessage(_ context.Context, _, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeSource) CreateThread(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := fmt.Sprintf("thread-%d", len(f.threads)+1)
	f.threads = append(f.threads, id)
	return id, nil
}

func (f *fakeSource) TimeoutMember(_ context.Context, _, userID string, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.timeouts = append(f.timeouts, timeoutCall{UserID: userID, Duration: d})
	return nil
}

func botMessage(id string, ts time.Time) core.Message {
	m := boardMessage(id, "bot-user", "Housekeeping notice", ts)
	m.AuthorBot = true
	return m
}

func newTestModerator(t *testing.T, src core.MessageSource) *Moderator {
	t.Helper()

	m := &Moderator{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: &config.Config{
			GuildID:         "guild",
			BoardChannelID:  "board",
			ModLogChannelID: "mod-log",
			BotUserID:       "bot-user",

			FrequencyWindow:  7 * 24 * time.Hour,
			GraceBias:        6 * time.Hour,
			ForHireMaxAge:    75 * time.Minute,
			SweepInterval:    time.Hour,
			RepostGrace:      10 * time.Minute,
			Web3BaseCooldown: time.Hour,
			ThreadTTL:        6 * time.Hour,
			ThreadCapacity:   64,
			ReportWindow:     15 * time.Minute,
		},
		Source: src,
	}
	require.NoError(t, m.Init(t.Context()))
	return m
}

func TestModeratorAcceptsValidPost(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	msg := boardMessage("m1", "alice", "[hiring] Senior Go engineer\nRemote, async-friendly team.", now)
	require.Equal(t, "accepted", m.handleCreate(t.Context(), msg, now))

	require.Equal(t, 1, m.cache.Len())
	hiring, forHire := m.Snapshot()
	require.Len(t, hiring, 1)
	require.Empty(t, forHire)
	require.Empty(t, src.deleted)
}

func TestModeratorIgnoresBotMessages(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	require.Equal(t, "ignored", m.handleCreate(t.Context(), botMessage("m1", now), now))
	require.Equal(t, 0, m.cache.Len())
	require.Empty(t, src.deleted)
}

func TestModeratorRejectsAndReports(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	msg := boardMessage("m1", "alice", "untagged chatter on the job board", now)
	require.Equal(t, "rejected", m.handleCreate(t.Context(), msg, now))

	require.Equal(t, []string{"m1"}, src.deleted)
	require.Len(t, src.threads, 1)
	require.Len(t, src.sent, 1)
	require.Equal(t, "thread-1", src.sent[0].ChannelID)
	require.Contains(t, src.sent[0].Content, "[hiring] or [for-hire]")

	// The delete event for our own removal is swallowed, no removal report.
	require.Equal(t, "self", m.handleDelete(t.Context(), msg, now))
	require.Len(t, src.sent, 1)
}

func TestModeratorDedupesRepeatedViolation(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	content := "untagged chatter on the job board"
	require.Equal(t, "rejected", m.handleCreate(t.Context(), boardMessage("m1", "alice", content, now), now))
	require.Equal(t, "rejected", m.handleCreate(t.Context(), boardMessage("m2", "alice", content, now.Add(time.Minute)), now.Add(time.Minute)))

	require.Len(t, src.threads, 1)
	require.Len(t, src.sent, 1)
	require.Len(t, src.edited, 1)
	require.Contains(t, src.edited[0].Content, "(warning #2)")
}

func TestModeratorExternalDeleteWithinGrace(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	msg := boardMessage("m1", "alice", "[hiring] Go engineer wanted", now)
	require.Equal(t, "accepted", m.handleCreate(t.Context(), msg, now))

	require.Equal(t, "deleted", m.handleDelete(t.Context(), msg, now.Add(5*time.Minute)))

	require.Equal(t, 0, m.cache.Len())
	require.Len(t, src.sent, 1)
	require.Equal(t, "mod-log", src.sent[0].ChannelID)
	require.Contains(t, src.sent[0].Content, "grace period")
}

func TestModeratorExternalDeleteOutsideGrace(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	msg := boardMessage("m1", "alice", "[hiring] Go engineer wanted", now.Add(-time.Hour))
	require.Equal(t, "accepted", m.handleCreate(t.Context(), msg, now.Add(-time.Hour)))

	require.Equal(t, "deleted", m.handleDelete(t.Context(), msg, now))

	// Past the grace window the entry stays, so the frequency rule still bites.
	require.Equal(t, 1, m.cache.Len())
	require.Len(t, src.sent, 1)
	require.Equal(t, "mod-log", src.sent[0].ChannelID)
	require.Contains(t, src.sent[0].Content, "outside of moderation")
}

func TestModeratorUpdateReValidatesAcceptedPost(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	msg := boardMessage("m1", "alice", "[hiring] Go engineer wanted", now)
	require.Equal(t, "accepted", m.handleCreate(t.Context(), msg, now))

	// Editing an accepted post must not trip the frequency rule against its
	// own cache entry.
	edited := msg
	edited.Content = "[hiring] Go engineer wanted, remote only"
	require.Equal(t, "accepted", m.handleUpdate(t.Context(), edited, now.Add(time.Minute)))
	require.Equal(t, 1, m.cache.Len())
	require.Empty(t, src.deleted)
}

func TestModeratorUpdateCircumvention(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	long := strings.Repeat("filler line about nothing in particular\n", 20)

	msg := boardMessage("m1", "alice", long, now)
	require.Equal(t, "rejected", m.handleCreate(t.Context(), msg, now))
	require.Len(t, src.sent, 1)

	// Swapping in a hiring tag while the post still fails is tag switching,
	// not a fresh attempt: delete again, no new report.
	edited := msg
	edited.Content = "[hiring]\n" + long
	require.Equal(t, "circumvention", m.handleUpdate(t.Context(), edited, now.Add(time.Minute)))

	require.Equal(t, []string{"m1", "m1"}, src.deleted)
	require.Len(t, src.sent, 1)
	require.Len(t, src.threads, 1)
}

func TestModeratorPurgeAuthorClearsFrequency(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	require.Equal(t, "accepted", m.handleCreate(t.Context(), boardMessage("m1", "alice", "[hiring] First role", now), now))
	require.Equal(t, "rejected", m.handleCreate(t.Context(), boardMessage("m2", "alice", "[hiring] Second role", now.Add(time.Hour)), now.Add(time.Hour)))

	require.Equal(t, 1, m.PurgeAuthor("alice"))

	require.Equal(t, "accepted", m.handleCreate(t.Context(), boardMessage("m3", "alice", "[hiring] Third role", now.Add(2*time.Hour)), now.Add(2*time.Hour)))
}

func TestModeratorWeb3EscalationTimeout(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	require.Equal(t, "rejected", m.handleCreate(t.Context(), boardMessage("m1", "wes", "[for hire]\nI build crypto trading bots", now), now))
	require.Empty(t, src.timeouts)

	require.Equal(t, "rejected", m.handleCreate(t.Context(), boardMessage("m2", "wes", "[for hire]\nNothing to see here", now.Add(time.Minute)), now.Add(time.Minute)))
	require.Empty(t, src.timeouts)

	require.Equal(t, "rejected", m.handleCreate(t.Context(), boardMessage("m3", "wes", "[for hire]\nStill around", now.Add(2*time.Minute)), now.Add(2*time.Minute)))

	require.Len(t, src.timeouts, 1)
	require.Equal(t, "wes", src.timeouts[0].UserID)
	require.Equal(t, 3*time.Hour, src.timeouts[0].Duration)
}

func TestModeratorSweepAged(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	accept := func(id, author, content string, ts time.Time) {
		t.Helper()
		require.Equal(t, "accepted", m.handleCreate(t.Context(), boardMessage(id, author, content, ts), ts))
	}

	accept("old-hiring", "a", "[hiring] Old but evergreen role", now.Add(-3*time.Hour))
	accept("old-fh", "b", "[for hire]\nAged availability note", now.Add(-2*time.Hour))
	accept("fresh-fh", "c", "[for hire]\nFresh availability note", now.Add(-10*time.Minute))

	m.SweepAged(t.Context(), now)

	require.Equal(t, []string{"old-fh"}, src.deleted)
	require.Equal(t, 2, m.cache.Len())
	require.True(t, m.cache.Contains("old-hiring"))
	require.True(t, m.cache.Contains("fresh-fh"))

	// The delete event echoing our own sweep is recognized as such.
	require.Equal(t, "self", m.handleDelete(t.Context(), boardMessage("old-fh", "b", "", now), now))
}

func TestModeratorSweepStopsOnError(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.deleteErr = fmt.Errorf("missing permission")
	m := newTestModerator(t, src)
	now := time.Now()

	require.Equal(t, "accepted", m.handleCreate(t.Context(), boardMessage("old-fh-1", "a", "[for hire]\nOne", now.Add(-3*time.Hour)), now.Add(-3*time.Hour)))
	require.Equal(t, "accepted", m.handleCreate(t.Context(), boardMessage("old-fh-2", "b", "[for hire]\nTwo", now.Add(-2*time.Hour)), now.Add(-2*time.Hour)))

	m.SweepAged(t.Context(), now)

	require.Equal(t, 2, m.cache.Len())
	require.Empty(t, src.deleted)

	src.deleteErr = nil
	m.SweepAged(t.Context(), now)

	require.Equal(t, []string{"old-fh-1", "old-fh-2"}, src.deleted)
	require.Equal(t, 0, m.cache.Len())
}

func TestModeratorUpdateCountsOneOffense(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	msg := boardMessage("m1", "wes", "[for hire]\nSelling crypto signals", now)
	require.Equal(t, "rejected", m.handleCreate(t.Context(), msg, now))

	count, ok := m.offenders.Active("wes", now)
	require.True(t, ok)
	require.Equal(t, 1, count)

	// Editing the rejected post keeps the type, so it re-enters the regular
	// path; the single edit event must register exactly one more offense.
	edited := msg
	edited.Content = "[for hire]\nSelling trading signals"
	require.Equal(t, "rejected", m.handleUpdate(t.Context(), edited, now.Add(time.Minute)))

	count, ok = m.offenders.Active("wes", now.Add(time.Minute))
	require.True(t, ok)
	require.Equal(t, 2, count)
	require.Empty(t, src.timeouts)
}

func TestModeratorSweepFailureKeepsExternalDeleteVisible(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.deleteErr = fmt.Errorf("missing permission")
	m := newTestModerator(t, src)
	now := time.Now()

	msg := boardMessage("old-fh", "a", "[for hire]\nAged availability note", now.Add(-2*time.Hour))
	require.Equal(t, "accepted", m.handleCreate(t.Context(), msg, now.Add(-2*time.Hour)))

	m.SweepAged(t.Context(), now)
	require.Empty(t, src.deleted)

	// The failed sweep left the message up; a staff deletion of it later is
	// external and still gets its removal report.
	require.Equal(t, "deleted", m.handleDelete(t.Context(), msg, now))
	require.Len(t, src.sent, 1)
	require.Equal(t, "mod-log", src.sent[0].ChannelID)
}

func TestModeratorStaleEntryDoesNotBlockRepost(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)
	now := time.Now()

	then := now.Add(-10 * 24 * time.Hour)
	require.Equal(t, "accepted", m.handleCreate(t.Context(), boardMessage("m1", "alice", "[hiring] Old role", then), then))

	// No one else posted since, so the stale entry was never evicted. A
	// fresh post well past the window must still go through.
	require.Equal(t, "accepted", m.handleCreate(t.Context(), boardMessage("m2", "alice", "[hiring] New role", now), now))
	require.Equal(t, 1, m.cache.Len())
	require.True(t, m.cache.Contains("m2"))
}

func TestModeratorHandleFiltersChannels(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	m := newTestModerator(t, src)

	elsewhere := boardMessage("m1", "alice", "off-board chatter", time.Now())
	elsewhere.ChannelID = "general"
	data, err := json.Marshal(core.MessageEvent{Op: core.OpMessageCreate, Seq: 1, Message: elsewhere})
	require.NoError(t, err)

	require.NoError(t, m.handle(t.Context(), data))
	require.Empty(t, src.deleted)
	require.Equal(t, 0, m.cache.Len())

	onBoard := boardMessage("m2", "alice", "[hiring] On-board role", time.Now())
	data, err = json.Marshal(core.MessageEvent{Op: core.OpMessageCreate, Seq: 2, Message: onBoard})
	require.NoError(t, err)

	require.NoError(t, m.handle(t.Context(), data))
	require.Equal(t, 1, m.cache.Len())
}
