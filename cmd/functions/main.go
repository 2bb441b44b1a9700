package main

import (
	"context"

	"github.com/alecthomas/kong"

	"puantajx-functions/cmd/functions/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug          bool `help:"Enable debug mode."`
		Version        kong.VersionFlag
		Serve          commands.ServeCmd          `cmd:"" help:"Serve the functions over HTTP"`
		MonthlySummary commands.MonthlySummaryCmd `cmd:"" help:"Send the monthly activity digest once and print the outcome"`
		CheckSchema    commands.CheckSchemaCmd    `cmd:"" help:"Verify the tables the functions depend on"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("functions"),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
