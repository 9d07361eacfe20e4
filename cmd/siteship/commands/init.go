package commands

import (
	"git.home.luguber.info/inful/siteship/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	g.Logger.Info("Initializing configuration", "path", root.Config, "force", i.Force)
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}
	g.println("Configuration written to", root.Config)
	g.println("Edit the manifest and publish settings, then run 'siteship check'.")
	return nil
}
