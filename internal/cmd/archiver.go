package cmd

import (
	"context"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"jobwarden/internal/archiving"
	"jobwarden/internal/cmd/flags"
	"jobwarden/internal/core"
	"jobwarden/internal/metrics"
	"jobwarden/internal/nats"
	"jobwarden/internal/persistence"
	"jobwarden/internal/persistence/actions"
)

var archiverCmd = &cli.Command{
	Name:  "archiver",
	Usage: "Persist moderation audit records to Postgres",
	Flags: []cli.Flag{
		flags.NATSURL,
		flags.NATSInit,
		flags.DatabaseURL,
		flags.MetricsAddr,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide[core.DB](&persistence.DB{}),
			pal.Provide[core.ActionRepository](&actions.Repository{}),
			pal.Provide(&archiving.ActionArchiver{}),
			pal.Provide(&metrics.Server{}),
			nats.Provide(),
		)
	},
}
