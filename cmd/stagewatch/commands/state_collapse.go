package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

// StateCollapseCommand toggles the collapse state of a tree node.
type StateCollapseCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	nodeID string
}

// NewStateCollapseCommand returns the state collapse command.
func NewStateCollapseCommand(rootCmd *RootCommand, stateCmd *kingpin.CmdClause) *StateCollapseCommand {
	c := &StateCollapseCommand{rootCmd: rootCmd}

	c.Cmd = stateCmd.Command("collapse", "Toggle the collapse state of a stage tree node.")
	c.Cmd.Arg("node-id", "Node id, the stage names path from the root (e.g. /root/child).").Required().StringVar(&c.nodeID)

	return c
}

func (c StateCollapseCommand) Name() string { return c.Cmd.FullCommand() }

func (c StateCollapseCommand) Run(ctx context.Context) error {
	ui, closeUI, err := c.rootCmd.loadUIState(ctx)
	if err != nil {
		return err
	}
	defer closeUI()

	msg := fmt.Sprintf("Node %s expanded", c.nodeID)
	if ui.Collapse.Toggle(ctx, c.nodeID) {
		msg = fmt.Sprintf("Node %s collapsed", c.nodeID)
	}

	return c.rootCmd.newPrinter(formatTable).PrintMessage(msg)
}
