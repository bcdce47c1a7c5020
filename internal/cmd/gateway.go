package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	libnats "github.com/nats-io/nats.go/jetstream"
	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"jobwarden/internal/cmd/flags"
	"jobwarden/internal/config"
	"jobwarden/internal/core"
	"jobwarden/internal/gateway"
	"jobwarden/internal/nats"
	"jobwarden/pkg/retry"
)

const cursorKey = "cursor"

var errGatewayDisconnected = errors.New("gateway disconnected")

var gatewayCmd = &cli.Command{
	Name:  "gateway",
	Usage: "Subscribe to the chat gateway, forward job-board events to NATS JetStream",
	Flags: []cli.Flag{
		flags.NATSURL,
		flags.NATSInit,
		flags.GatewayURL,
		flags.ChatAPIToken,
		flags.BoardChannelID,
		flags.MetricsAddr,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide(&gateway.Subscriber{}),
			pal.Provide(&gatewayRunner{}),
			nats.Provide(),
		)
	},
}

type gatewayRunner struct {
	Logger     *slog.Logger
	Config     *config.Config
	Subscriber *gateway.Subscriber
	NATS       *nats.NATS
}

func (g *gatewayRunner) Run(ctx context.Context) error {
	return retry.WrapWithRetry(func() error {
		err := g.run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			g.Logger.Error("error running gateway, reconnecting", "error", err)
		}
		return err
	}, func(_ error, _ int) bool {
		return ctx.Err() == nil
	}, 10)()
}

func (g *gatewayRunner) run(ctx context.Context) error {
	cursor, err := g.NATS.KV.Get(ctx, cursorKey)
	if err != nil {
		if !errors.Is(err, libnats.ErrKeyNotFound) {
			return err
		}
	}

	var after int64
	if cursor != nil {
		after, err = strconv.ParseInt(string(cursor.Value()), 10, 64)
		if err != nil {
			return err
		}
	}

	g.Logger.Info("subscribing to the chat gateway", "after", after)
	ch, err := g.Subscriber.Consume(ctx, after)
	if err != nil {
		return err
	}

	for event := range ch {
		bytes, err := json.Marshal(event)
		if err != nil {
			return err
		}

		msgID := messageID(event)

		if err := g.NATS.Publish(ctx, nats.SubjectEvents, msgID, bytes); err != nil {
			return err
		}
		if _, err := g.NATS.KV.Put(ctx, cursorKey, []byte(fmt.Sprintf("%d", event.Seq))); err != nil {
			return err
		}

		g.Logger.Debug("published event", "id", msgID, "cursor", event.Seq)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return errGatewayDisconnected
}

func messageID(event *core.MessageEvent) string {
	return fmt.Sprintf("%s-%s-%d", event.Message.ID, event.Op, event.Seq)
}
