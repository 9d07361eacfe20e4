package commands

import "git.home.luguber.info/inful/siteship/internal/version"

// VersionCmd implements the 'version' command.
type VersionCmd struct{}

func (v *VersionCmd) Run(g *Global, _ *CLI) error {
	g.println(version.String())
	return nil
}
