package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stagewatch/internal/app/dashboard"
	"github.com/slok/stagewatch/internal/backend"
)

type ErrorsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	node   string
	format string
}

// NewErrorsCommand returns the errors command.
func NewErrorsCommand(rootCmd *RootCommand, app *kingpin.Application) *ErrorsCommand {
	c := &ErrorsCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("errors", "Show the task error log, most recent first.")
	c.Cmd.Flag("node", "Only show the errors of this node.").StringVar(&c.node)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c ErrorsCommand) Name() string { return c.Cmd.FullCommand() }

func (c ErrorsCommand) Run(ctx context.Context) error {
	d, err := c.rootCmd.fetchDashboard(ctx, dashboard.Request{NodeFilter: c.node}, backend.EndpointErrors)
	if err != nil {
		return err
	}

	if err := c.rootCmd.newPrinter(c.format).PrintErrors(d.Errors); err != nil {
		return fmt.Errorf("could not print errors: %w", err)
	}

	return nil
}
