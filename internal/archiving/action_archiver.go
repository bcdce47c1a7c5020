package archiving

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	"github.com/zhulik/pips"
	"github.com/zhulik/pips/apply"

	"jobwarden/internal/core"
	"jobwarden/internal/nats"
)

const batchSize = 10

var actionsArchived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "jobwarden_actions_archived_total",
	Help: "The total number of moderation actions persisted",
})

// ActionArchiver consumes audit records from JetStream and persists them in
// batches. It never blocks moderation: the moderator publishes and forgets.
type ActionArchiver struct {
	Logger *slog.Logger
	NATS   *nats.NATS
	Repo   core.ActionRepository
}

func (a *ActionArchiver) Init(context.Context) error {
	a.Logger = a.Logger.With("component", "archiving.ActionArchiver")
	return nil
}

func (a *ActionArchiver) Run(ctx context.Context) error {
	return a.NATS.ConsumeToPipeline(ctx, nats.ConsumerArchiver,
		pips.New[jetstream.Msg, any]().
			Then(apply.Batch[jetstream.Msg](batchSize)).
			Then(
				apply.Map(func(ctx context.Context, msgs []jetstream.Msg) (any, error) {
					if err := a.Archive(ctx, msgs...); err != nil {
						a.Logger.Error("failed to archive actions", "error", err)
						return nil, nil
					}

					for _, msg := range msgs {
						msg.Ack() // nolint:errcheck
					}
					return nil, nil
				}),
			),
	)
}

func (a *ActionArchiver) HealthCheck(context.Context) error {
	return nil
}

func (a *ActionArchiver) Archive(ctx context.Context, msgs ...jetstream.Msg) error {
	models := lo.FilterMap(msgs, func(msg jetstream.Msg, _ int) (core.ModerationActionModel, bool) {
		var rec core.AuditRecord
		if err := json.Unmarshal(msg.Data(), &rec); err != nil {
			a.Logger.Error("skipping malformed audit record", "error", err)
			return core.ModerationActionModel{}, false
		}
		return modelFromRecord(rec), true
	})
	if len(models) == 0 {
		return nil
	}

	if err := a.Repo.Insert(ctx, models...); err != nil {
		return err
	}

	actionsArchived.Add(float64(len(models)))
	return nil
}

func modelFromRecord(rec core.AuditRecord) core.ModerationActionModel {
	return core.ModerationActionModel{
		Action:    rec.Action,
		ChannelID: rec.ChannelID,
		MessageID: rec.MessageID,
		AuthorID:  rec.AuthorID,
		Detail:    rec.Detail,
		At:        rec.At,
	}
}
