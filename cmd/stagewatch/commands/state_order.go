package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"
)

// StateOrderCommand sets the status card order.
type StateOrderCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	names []string
}

// NewStateOrderCommand returns the state order command.
func NewStateOrderCommand(rootCmd *RootCommand, stateCmd *kingpin.CmdClause) *StateOrderCommand {
	c := &StateOrderCommand{rootCmd: rootCmd}

	c.Cmd = stateCmd.Command("order", "Set the status card order, nodes not listed go after in backend order.")
	c.Cmd.Arg("names", "Node names in display order, none resets the order.").StringsVar(&c.names)

	return c
}

func (c StateOrderCommand) Name() string { return c.Cmd.FullCommand() }

func (c StateOrderCommand) Run(ctx context.Context) error {
	ui, closeUI, err := c.rootCmd.loadUIState(ctx)
	if err != nil {
		return err
	}
	defer closeUI()

	ui.Order.Set(ctx, c.names)

	order := ui.Order.Names()
	if len(order) == 0 {
		return c.rootCmd.newPrinter(formatTable).PrintMessage("Card order reset")
	}
	return c.rootCmd.newPrinter(formatTable).PrintMessage(fmt.Sprintf("Card order: %s", strings.Join(order, ", ")))
}
