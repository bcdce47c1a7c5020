package cmd

import (
	"context"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"jobwarden/internal/api"
	"jobwarden/internal/chat"
	"jobwarden/internal/cmd/flags"
	"jobwarden/internal/core"
	"jobwarden/internal/jobboard"
	"jobwarden/internal/metrics"
	"jobwarden/internal/nats"
)

var moderatorCmd = &cli.Command{
	Name:  "moderator",
	Usage: "Consume job-board events, apply the moderation rules, serve the jobs API",
	Flags: append([]cli.Flag{
		flags.NATSURL,
		flags.NATSInit,
		flags.ChatAPIURL,
		flags.ChatAPIToken,
		flags.APIAddr,
		flags.MetricsAddr,
	}, flags.Moderation()...),
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide[core.MessageSource](&chat.Client{}),
			pal.Provide(&jobboard.Moderator{}),
			pal.Provide(&api.Server{}),
			pal.Provide(&metrics.Server{}),
			nats.Provide(),
		)
	},
}
