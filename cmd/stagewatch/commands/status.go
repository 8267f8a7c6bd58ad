package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stagewatch/internal/app/dashboard"
	"github.com/slok/stagewatch/internal/backend"
)

type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Show the status cards of the backend nodes.")
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatusCommand) Run(ctx context.Context) error {
	d, err := c.rootCmd.fetchDashboard(ctx, dashboard.Request{}, backend.EndpointStatus)
	if err != nil {
		return err
	}

	if err := c.rootCmd.newPrinter(c.format).PrintStatus(d.Cards, d.Summary); err != nil {
		return fmt.Errorf("could not print status: %w", err)
	}

	return nil
}
