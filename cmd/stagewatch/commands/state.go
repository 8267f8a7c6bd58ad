package commands

import "github.com/alecthomas/kingpin/v2"

// NewStateCommand returns the parent command of the UI state subcommands.
func NewStateCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("state", "Manage the persisted dashboard UI state.")
}
