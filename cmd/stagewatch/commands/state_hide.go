package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

// StateHideCommand toggles the chart series visibility of a node.
type StateHideCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	node string
}

// NewStateHideCommand returns the state hide command.
func NewStateHideCommand(rootCmd *RootCommand, stateCmd *kingpin.CmdClause) *StateHideCommand {
	c := &StateHideCommand{rootCmd: rootCmd}

	c.Cmd = stateCmd.Command("hide", "Toggle the chart series visibility of a node.")
	c.Cmd.Arg("node", "Node name.").Required().StringVar(&c.node)

	return c
}

func (c StateHideCommand) Name() string { return c.Cmd.FullCommand() }

func (c StateHideCommand) Run(ctx context.Context) error {
	ui, closeUI, err := c.rootCmd.loadUIState(ctx)
	if err != nil {
		return err
	}
	defer closeUI()

	msg := fmt.Sprintf("Series %s shown", c.node)
	if ui.Hidden.Toggle(ctx, c.node) {
		msg = fmt.Sprintf("Series %s hidden", c.node)
	}

	return c.rootCmd.newPrinter(formatTable).PrintMessage(msg)
}
