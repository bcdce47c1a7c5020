package cmd

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"jobwarden/internal/cmd/flags"
	"jobwarden/internal/core"
	"jobwarden/internal/persistence"
)

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "Run database migrations",
	Flags: []cli.Flag{
		flags.DatabaseURL,
	},
	Commands: []*cli.Command{
		{
			Name:  "up",
			Usage: "Migrate the database up",
			Action: func(ctx context.Context, c *cli.Command) error {
				return run(ctx, c,
					pal.Provide[core.DB](&persistence.DB{}),
					pal.Provide(&persistence.Migrator{}),
					pal.Provide(&migrateRunner{down: false}),
				)
			},
		},
		{
			Name:  "down",
			Usage: "Migrate the database one step down",
			Action: func(ctx context.Context, c *cli.Command) error {
				return run(ctx, c,
					pal.Provide[core.DB](&persistence.DB{}),
					pal.Provide(&persistence.Migrator{}),
					pal.Provide(&migrateRunner{down: true}),
				)
			},
		},
	},
}

type migrateRunner struct {
	Logger   *slog.Logger
	Migrator *persistence.Migrator

	down bool
}

func (m *migrateRunner) RunConfig() pal.RunConfig {
	return pal.RunConfig{
		Wait: false,
	}
}

func (m *migrateRunner) Run(ctx context.Context) error {
	if m.down {
		return m.Migrator.Down(ctx)
	}
	return m.Migrator.Up(ctx)
}
