package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/centriq-hq/centriq/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug    bool `help:"Enable debug mode."`
		Version  kong.VersionFlag
		Server   commands.ServerCmd   `cmd:"" help:"Start the API server"`
		Migrate  commands.MigrateCmd  `cmd:"" help:"Run database migrations and exit"`
		Token    commands.TokenCmd    `cmd:"" help:"Issue a signed access token"`
		Backfill commands.BackfillCmd `cmd:"" help:"Rebuild the aggregate indexes from the database and exit"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
