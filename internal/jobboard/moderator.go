package jobboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	"github.com/zhulik/pips"
	"github.com/zhulik/pips/apply"

	"jobwarden/internal/config"
	"jobwarden/internal/core"
	"jobwarden/internal/nats"
)

const escalationThreshold = 3

var (
	eventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobwarden_events_processed_total",
		Help: "The total number of processed board events",
	}, []string{"op", "outcome"})

	failuresReported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobwarden_failures_reported_total",
		Help: "The total number of rule failures reported",
	}, []string{"kind"})

	postsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobwarden_posts_accepted_total",
		Help: "The total number of posts accepted into the cache",
	})

	sweepEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jobwarden_sweep_evicted_total",
		Help: "The total number of aged for-hire posts evicted by the sweep",
	})
)

// Moderator is the orchestrator: it consumes board events from JetStream,
// runs them through the parser and rule set, commits accepted posts to the
// cache and moderates rejected ones. It also owns the hourly aged-content
// sweep.
type Moderator struct {
	Logger *slog.Logger
	Config *config.Config
	NATS   *nats.NATS
	Source core.MessageSource

	cache     *PostCache
	offenders *OffenderCache
	rules     *RuleSet
	threads   *ThreadCache
	reports   *reportLog
	moderated *moderatedSet
}

func (m *Moderator) Init(context.Context) error {
	m.Logger = m.Logger.With("component", "jobboard.Moderator")

	m.cache = NewPostCache(m.Config.FrequencyWindow, m.Config.GraceBias)
	m.offenders = NewOffenderCache(m.Config.Web3BaseCooldown)
	m.rules = NewRuleSet(m.cache, m.offenders)
	m.threads = NewThreadCache(m.Config.ThreadTTL, m.Config.ThreadCapacity)
	m.reports = newReportLog(m.Config.ReportWindow)
	m.moderated = newModeratedSet()

	return nil
}

func (m *Moderator) Run(ctx context.Context) error {
	// Bootstrap is best-effort: until it completes the frequency rule runs
	// with reduced accuracy, which is tolerable.
	if err := m.cache.Load(ctx, m.Source, m.Config.BoardChannelID, m.Config.BotUserID, time.Now()); err != nil {
		m.Logger.Error("bootstrap load failed, starting with an empty cache", "error", err)
	} else {
		m.Logger.Info("bootstrap load complete", "posts", m.cache.Len())
	}

	go m.sweepLoop(ctx)

	return m.NATS.ConsumeToPipeline(ctx, nats.ConsumerModerator,
		pips.New[jetstream.Msg, any]().
			Then(
				apply.Each(func(ctx context.Context, msg jetstream.Msg) error {
					if err := m.handle(ctx, msg.Data()); err != nil {
						m.Logger.Error("failed to handle event", "error", err)
					}
					return nil
				}),
			).
			Then(
				apply.Each(func(_ context.Context, msg jetstream.Msg) error {
					msg.Ack() // nolint:errcheck
					return nil
				}),
			),
	)
}

func (m *Moderator) HealthCheck(context.Context) error {
	return nil
}

func (m *Moderator) handle(ctx context.Context, data []byte) error {
	var event core.MessageEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}

	if event.Message.ChannelID != m.Config.BoardChannelID {
		return nil
	}

	now := time.Now()
	outcome := "ignored"

	switch event.Op {
	case core.OpMessageCreate:
		outcome = m.handleCreate(ctx, event.Message, now)
	case core.OpMessageUpdate:
		outcome = m.handleUpdate(ctx, event.Message, now)
	case core.OpMessageDelete:
		outcome = m.handleDelete(ctx, event.Message, now)
	}

	eventsProcessed.WithLabelValues(event.Op, outcome).Inc()
	return nil
}

func (m *Moderator) handleCreate(ctx context.Context, msg core.Message, now time.Time) string {
	if msg.AuthorBot || msg.AuthorID == m.Config.BotUserID {
		return "ignored"
	}

	posts := Parse(msg.Content)
	return m.resolve(ctx, msg, posts, m.rules.Validate(posts, msg, now), now)
}

func (m *Moderator) resolve(ctx context.Context, msg core.Message, posts []Post, failures []Failure, now time.Time) string {
	if len(failures) == 0 {
		m.cache.Append(now, storedFromMessage(msg))
		postsAccepted.Inc()
		return "accepted"
	}

	for _, f := range failures {
		failuresReported.WithLabelValues(string(f.Kind)).Inc()
	}

	m.reject(ctx, msg, posts, failures, now)
	return "rejected"
}

func (m *Moderator) handleUpdate(ctx context.Context, msg core.Message, now time.Time) string {
	if msg.AuthorBot || msg.AuthorID == m.Config.BotUserID {
		return "ignored"
	}

	// Release the author's own entry first so an edit of an accepted post
	// doesn't trip the frequency rule against itself. A clean re-validation
	// puts it back with the original timestamp.
	m.cache.RemoveByMessage(msg.ID)

	// Validate exactly once per edit: the web3 rule mutates the offender
	// cache, so the circumvention check and the regular path must share one
	// result or a single edit would count as two offenses.
	posts := Parse(msg.Content)
	failures := m.rules.Validate(posts, msg, now)

	if prior, ok := m.reports.LastRejection(msg.AuthorID, now); ok {
		if len(failures) > 0 && messageType(posts) != prior.RejectedType {
			// Switching the hiring/for-hire tag on a rejected post is
			// circumvention, not a fresh attempt: no moderation thread.
			m.deleteMessage(ctx, msg)
			m.audit(ctx, core.AuditRecord{
				Action:    core.ActionCircumvention,
				ChannelID: msg.ChannelID,
				MessageID: msg.ID,
				AuthorID:  msg.AuthorID,
				Detail:    fmt.Sprintf("tag switched from %s to %s", prior.RejectedType, messageType(posts)),
			})
			return "circumvention"
		}
	}

	return m.resolve(ctx, msg, posts, failures, now)
}

func (m *Moderator) handleDelete(ctx context.Context, msg core.Message, now time.Time) string {
	if m.moderated.Consume(msg.ID) {
		return "self"
	}

	authorID := msg.AuthorID
	withinGrace := false
	if sp, ok := m.cache.GetByMessage(msg.ID); ok {
		authorID = sp.AuthorID
		if now.Sub(sp.CreatedAt) <= m.Config.RepostGrace {
			// Self-deletion inside the grace window frees the author to
			// repost without tripping the frequency rule.
			m.cache.RemoveByMessage(msg.ID)
			withinGrace = true
		}
	}

	report := fmt.Sprintf("A job post (message %s) was removed outside of moderation.", msg.ID)
	if withinGrace {
		report = fmt.Sprintf("A job post (message %s) was removed within the repost grace period; the author may post again.", msg.ID)
	}
	if _, err := m.Source.SendMessage(ctx, m.Config.ModLogChannel(), report); err != nil {
		m.Logger.Warn("failed to send removal report", "error", err)
	}

	m.audit(ctx, core.AuditRecord{
		Action:    core.ActionRemovalReport,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
		AuthorID:  authorID,
	})
	return "deleted"
}

func (m *Moderator) reject(ctx context.Context, msg core.Message, posts []Post, failures []Failure, now time.Time) {
	m.deleteMessage(ctx, msg)
	m.audit(ctx, core.AuditRecord{
		Action:    core.ActionDelete,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
		AuthorID:  msg.AuthorID,
		Detail:    failureKinds(failures),
	})

	m.report(ctx, msg, posts, failures, now)
	m.escalate(ctx, msg, failures)
}

// deleteMessage removes a message and marks it as self-moderated. The mark
// follows a successful delete: a failed delete leaves the message up, and a
// later external deletion of it must still produce a removal report.
func (m *Moderator) deleteMessage(ctx context.Context, msg core.Message) {
	if err := m.Source.DeleteMessage(ctx, msg.ChannelID, msg.ID); err != nil {
		m.Logger.Warn("failed to delete message", "message_id", msg.ID, "error", err)
		return
	}
	m.moderated.Mark(msg.ID)
}

// report routes the author to their moderation thread. Identical repeated
// violations update the outstanding report in place with a warning counter
// instead of posting a new one.
func (m *Moderator) report(ctx context.Context, msg core.Message, posts []Post, failures []Failure, now time.Time) {
	digest := contentDigest(msg.Content)

	if rep, ok := m.reports.Get(msg.AuthorID, digest, now); ok {
		rep.Warnings++
		rep.At = now
		if err := m.Source.EditMessage(ctx, rep.ThreadID, rep.MessageID, renderReport(failures, rep.Warnings)); err != nil {
			m.Logger.Warn("failed to update report", "error", err)
		}
		return
	}

	threadID, ok := m.threads.Get(msg.AuthorID, now)
	if !ok {
		var err error
		threadID, err = m.Source.CreateThread(ctx, m.Config.BoardChannelID, "Job board moderation: "+msg.AuthorID)
		if err != nil {
			m.Logger.Warn("failed to create moderation thread", "author_id", msg.AuthorID, "error", err)
			return
		}
		m.threads.Put(msg.AuthorID, threadID, now)
	}

	sent, err := m.Source.SendMessage(ctx, threadID, renderReport(failures, 1))
	if err != nil {
		m.Logger.Warn("failed to send report", "author_id", msg.AuthorID, "error", err)
		return
	}

	m.reports.Put(msg.AuthorID, digest, &outstandingReport{
		ThreadID:     threadID,
		MessageID:    sent.ID,
		Warnings:     1,
		At:           now,
		RejectedType: messageType(posts),
	})

	m.audit(ctx, core.AuditRecord{
		Action:    core.ActionReport,
		ChannelID: threadID,
		MessageID: sent.ID,
		AuthorID:  msg.AuthorID,
		Detail:    failureKinds(failures),
	})
}

// escalate times the author out once the web3 offense count crosses the
// threshold. The timeout itself is fire-and-forget.
func (m *Moderator) escalate(ctx context.Context, msg core.Message, failures []Failure) {
	count := 0
	for _, f := range failures {
		if f.Web3() && f.Count > count {
			count = f.Count
		}
	}
	if count < escalationThreshold {
		return
	}

	d := m.offenders.Cooldown(count)
	if err := m.Source.TimeoutMember(ctx, msg.GuildID, msg.AuthorID, d); err != nil {
		m.Logger.Warn("failed to time out member", "author_id", msg.AuthorID, "error", err)
	}

	m.audit(ctx, core.AuditRecord{
		Action:    core.ActionTimeout,
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
		AuthorID:  msg.AuthorID,
		Detail:    d.String(),
	})
}

func (m *Moderator) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(m.Config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SweepAged(ctx, time.Now())
		}
	}
}

// SweepAged evicts aged for-hire posts and deletes their messages. Each
// entry is re-checked against the cache after the remote call, since events
// may land mid-sweep. An undeletable message stops the cycle.
func (m *Moderator) SweepAged(ctx context.Context, now time.Time) {
	for _, sp := range m.cache.AgedForHire(now, m.Config.ForHireMaxAge) {
		if !m.cache.Contains(sp.MessageID) {
			continue
		}

		if err := m.Source.DeleteMessage(ctx, sp.ChannelID, sp.MessageID); err != nil {
			m.Logger.Warn("sweep stopped on undeletable message", "message_id", sp.MessageID, "error", err)
			return
		}

		m.moderated.Mark(sp.MessageID)
		m.cache.RemoveByMessage(sp.MessageID)
		sweepEvicted.Inc()
		m.audit(ctx, core.AuditRecord{
			Action:    core.ActionSweepEvict,
			ChannelID: sp.ChannelID,
			MessageID: sp.MessageID,
			AuthorID:  sp.AuthorID,
		})
	}
}

// Snapshot exposes the cached posts to the HTTP API.
func (m *Moderator) Snapshot() (hiring, forHire []StoredPost) {
	return m.cache.Snapshot()
}

// PurgeAuthor clears an author's cache entries and offender record. It
// returns how many posts were removed.
func (m *Moderator) PurgeAuthor(authorID string) int {
	m.offenders.Forget(authorID)
	return m.cache.PurgeAuthor(authorID)
}

func (m *Moderator) audit(ctx context.Context, rec core.AuditRecord) {
	if m.NATS == nil {
		return
	}
	rec.At = time.Now()
	if err := m.NATS.PublishAudit(ctx, rec); err != nil {
		m.Logger.Warn("failed to publish audit record", "action", rec.Action, "error", err)
	}
}

func messageType(posts []Post) PostType {
	for _, p := range posts {
		if p.Type() == TypeHiring {
			return TypeHiring
		}
	}
	return TypeForHire
}

func failureKinds(failures []Failure) string {
	return strings.Join(lo.Uniq(lo.Map(failures, func(f Failure, _ int) string {
		return string(f.Kind)
	})), ",")
}

func renderReport(failures []Failure, warnings int) string {
	var b strings.Builder
	b.WriteString("Your job board post was removed:\n")
	for _, f := range failures {
		b.WriteString("- ")
		b.WriteString(f.Explain())
		b.WriteString("\n")
	}
	b.WriteString("Fix the issues above and post again.")
	if warnings > 1 {
		b.WriteString(fmt.Sprintf(" (warning #%d)", warnings))
	}
	return b.String()
}
