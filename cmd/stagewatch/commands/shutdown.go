package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stagewatch/internal/app/shutdown"
)

type ShutdownCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	yes bool
}

// NewShutdownCommand returns the shutdown command.
func NewShutdownCommand(rootCmd *RootCommand, app *kingpin.Application) *ShutdownCommand {
	c := &ShutdownCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("shutdown", "Shutdown the task backend.")
	c.Cmd.Flag("yes", "Don't ask for confirmation.").Short('y').BoolVar(&c.yes)

	return c
}

func (c ShutdownCommand) Name() string { return c.Cmd.FullCommand() }

func (c ShutdownCommand) Run(ctx context.Context) error {
	cfg, err := c.rootCmd.loadConfig(ctx)
	if err != nil {
		return err
	}

	client, err := c.rootCmd.newBackend(cfg)
	if err != nil {
		return err
	}

	svc, err := shutdown.NewService(shutdown.ServiceConfig{
		Backend:   client,
		Confirmer: newPromptConfirmer(c.rootCmd.Stdin, c.rootCmd.Stdout),
		Logger:    c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	msg, err := svc.Run(ctx, shutdown.Request{Confirmed: c.yes})
	if err != nil {
		return fmt.Errorf("could not shutdown backend: %w", err)
	}

	return c.rootCmd.newPrinter(formatTable).PrintMessage(msg)
}

// newPromptConfirmer asks on out and reads a yes or no answer from in.
func newPromptConfirmer(in io.Reader, out io.Writer) shutdown.Confirmer {
	return shutdown.ConfirmerFunc(func(ctx context.Context, prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)

		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return false, fmt.Errorf("could not read answer: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	})
}
