package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stagewatch/internal/view"
)

// StateShowCommand shows the persisted UI state.
type StateShowCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewStateShowCommand returns the state show command.
func NewStateShowCommand(rootCmd *RootCommand, stateCmd *kingpin.CmdClause) *StateShowCommand {
	c := &StateShowCommand{rootCmd: rootCmd}

	c.Cmd = stateCmd.Command("show", "Show the persisted UI state.")
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c StateShowCommand) Name() string { return c.Cmd.FullCommand() }

func (c StateShowCommand) Run(ctx context.Context) error {
	ui, closeUI, err := c.rootCmd.loadUIState(ctx)
	if err != nil {
		return err
	}
	defer closeUI()

	s := view.UIState{
		Theme:     string(ui.Theme.Get()),
		Collapsed: ui.Collapse.IDs(),
		Order:     ui.Order.Names(),
		Hidden:    ui.Hidden.Names(),
	}
	if err := c.rootCmd.newPrinter(c.format).PrintUIState(s); err != nil {
		return fmt.Errorf("could not print UI state: %w", err)
	}

	return nil
}
