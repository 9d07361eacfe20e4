package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/siteship/cmd/siteship/commands"
	"git.home.luguber.info/inful/siteship/internal/foundation/errors"
	"git.home.luguber.info/inful/siteship/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("siteship"),
		kong.Description("Verify a static site export and publish it."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default()}, &cli)
	os.Exit(errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(err))
}
