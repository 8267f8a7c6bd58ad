package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stagewatch/internal/app/dashboard"
	"github.com/slok/stagewatch/internal/backend"
	"github.com/slok/stagewatch/internal/structure"
)

type TreeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewTreeCommand returns the tree command.
func NewTreeCommand(rootCmd *RootCommand, app *kingpin.Application) *TreeCommand {
	c := &TreeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("tree", "Show the backend stage tree.")
	c.Cmd.Flag("format", "Output format (table, json, text). Text is the bordered backend format and ignores the collapsed nodes.").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON, formatText)

	return c
}

func (c TreeCommand) Name() string { return c.Cmd.FullCommand() }

func (c TreeCommand) Run(ctx context.Context) error {
	if c.format == formatText {
		return c.runText(ctx)
	}

	d, err := c.rootCmd.fetchDashboard(ctx, dashboard.Request{}, backend.EndpointStructure)
	if err != nil {
		return err
	}

	if err := c.rootCmd.newPrinter(c.format).PrintTree(d.Tree); err != nil {
		return fmt.Errorf("could not print tree: %w", err)
	}

	return nil
}

func (c TreeCommand) runText(ctx context.Context) error {
	cfg, err := c.rootCmd.loadConfig(ctx)
	if err != nil {
		return err
	}

	client, err := c.rootCmd.newBackend(cfg)
	if err != nil {
		return err
	}

	root, err := client.GetStructure(ctx)
	if err != nil {
		return fmt.Errorf("could not get structure: %w", err)
	}
	if root == nil {
		fmt.Fprintln(c.rootCmd.Stdout, "No structure available")
		return nil
	}

	for _, line := range structure.FormatBordered(*root) {
		fmt.Fprintln(c.rootCmd.Stdout, line)
	}

	return nil
}
