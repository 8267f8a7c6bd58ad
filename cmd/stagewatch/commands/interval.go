package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stagewatch/internal/model"
)

type IntervalCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	intervalMS int64
}

// NewIntervalCommand returns the interval command.
func NewIntervalCommand(rootCmd *RootCommand, app *kingpin.Application) *IntervalCommand {
	c := &IntervalCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("interval", "Push the refresh interval to the backend.")
	c.Cmd.Arg("milliseconds", "Refresh interval (1000, 2000, 5000, 10000, 30000, 60000).").Required().Int64Var(&c.intervalMS)

	return c
}

func (c IntervalCommand) Name() string { return c.Cmd.FullCommand() }

func (c IntervalCommand) Run(ctx context.Context) error {
	interval := time.Duration(c.intervalMS) * time.Millisecond
	if err := model.ValidateRefreshInterval(interval); err != nil {
		return err
	}

	cfg, err := c.rootCmd.loadConfig(ctx)
	if err != nil {
		return err
	}

	client, err := c.rootCmd.newBackend(cfg)
	if err != nil {
		return err
	}

	if err := client.PushInterval(ctx, interval); err != nil {
		return fmt.Errorf("could not push interval: %w", err)
	}

	return c.rootCmd.newPrinter(formatTable).PrintMessage(fmt.Sprintf("Interval set to %s", interval))
}
