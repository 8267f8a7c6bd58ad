package commands

import (
	"context"

	"github.com/alecthomas/kingpin/v2"
)

// StateResetCommand drops the persisted UI state.
type StateResetCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand
}

// NewStateResetCommand returns the state reset command.
func NewStateResetCommand(rootCmd *RootCommand, stateCmd *kingpin.CmdClause) *StateResetCommand {
	c := &StateResetCommand{rootCmd: rootCmd}
	c.Cmd = stateCmd.Command("reset", "Reset the UI state to its defaults (expanded tree, backend card order, visible series, light theme).")
	return c
}

func (c StateResetCommand) Name() string { return c.Cmd.FullCommand() }

func (c StateResetCommand) Run(ctx context.Context) error {
	ui, closeUI, err := c.rootCmd.loadUIState(ctx)
	if err != nil {
		return err
	}
	defer closeUI()

	ui.Reset(ctx)

	return c.rootCmd.newPrinter(formatTable).PrintMessage("UI state reset")
}
