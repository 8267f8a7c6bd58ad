package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stagewatch/internal/uistate"
)

// StateThemeCommand sets the dashboard theme.
type StateThemeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	theme string
}

// NewStateThemeCommand returns the state theme command.
func NewStateThemeCommand(rootCmd *RootCommand, stateCmd *kingpin.CmdClause) *StateThemeCommand {
	c := &StateThemeCommand{rootCmd: rootCmd}

	c.Cmd = stateCmd.Command("theme", "Set the dashboard theme.")
	c.Cmd.Arg("theme", "Theme name.").Required().EnumVar(&c.theme, string(uistate.ThemeLight), string(uistate.ThemeDark))

	return c
}

func (c StateThemeCommand) Name() string { return c.Cmd.FullCommand() }

func (c StateThemeCommand) Run(ctx context.Context) error {
	ui, closeUI, err := c.rootCmd.loadUIState(ctx)
	if err != nil {
		return err
	}
	defer closeUI()

	if err := ui.Theme.Set(ctx, uistate.ThemeName(c.theme)); err != nil {
		return fmt.Errorf("could not set theme: %w", err)
	}

	return c.rootCmd.newPrinter(formatTable).PrintMessage(fmt.Sprintf("Theme set to %s", c.theme))
}
