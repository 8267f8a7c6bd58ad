package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stagewatch/internal/app/inject"
)

type InjectCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	node     string
	data     string
	dataFile string
}

// NewInjectCommand returns the inject command.
func NewInjectCommand(rootCmd *RootCommand, app *kingpin.Application) *InjectCommand {
	c := &InjectCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("inject", "Inject tasks into a backend node.")
	c.Cmd.Flag("node", "Target node name.").Required().StringVar(&c.node)
	c.Cmd.Flag("data", "Task data JSON object.").StringVar(&c.data)
	c.Cmd.Flag("data-file", "File with the task data JSON object.").ExistingFileVar(&c.dataFile)

	return c
}

func (c InjectCommand) Name() string { return c.Cmd.FullCommand() }

func (c InjectCommand) Run(ctx context.Context) error {
	data := []byte(c.data)
	switch {
	case c.data != "" && c.dataFile != "":
		return fmt.Errorf("--data and --data-file are mutually exclusive")
	case c.dataFile != "":
		b, err := os.ReadFile(c.dataFile)
		if err != nil {
			return fmt.Errorf("could not read data file: %w", err)
		}
		data = b
	}

	cfg, err := c.rootCmd.loadConfig(ctx)
	if err != nil {
		return err
	}

	client, err := c.rootCmd.newBackend(cfg)
	if err != nil {
		return err
	}

	svc, err := inject.NewService(inject.ServiceConfig{
		Backend: client,
		Logger:  c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	inj, err := svc.Run(ctx, inject.Request{Node: c.node, Data: data})
	if err != nil {
		return fmt.Errorf("could not inject tasks: %w", err)
	}

	return c.rootCmd.newPrinter(formatTable).PrintMessage(fmt.Sprintf("Injected %d task data entries into %s", len(inj.TaskDatas), inj.Node))
}
