package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/stagewatch/internal/app/dashboard"
	"github.com/slok/stagewatch/internal/app/refresh"
)

const clearScreen = "\033[H\033[2J"

type WatchCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	intervalMS int64
	nodeFilter string
	format     string
	noClear    bool
}

// NewWatchCommand returns the watch command.
func NewWatchCommand(rootCmd *RootCommand, app *kingpin.Application) *WatchCommand {
	c := &WatchCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("watch", "Live terminal dashboard of the task backend.")
	c.Cmd.Flag("interval", "Refresh interval in milliseconds (1000, 2000, 5000, 10000, 30000, 60000), overrides the configuration.").Int64Var(&c.intervalMS)
	c.Cmd.Flag("node", "Only show the errors of this node.").StringVar(&c.nodeFilter)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)
	c.Cmd.Flag("no-clear", "Don't clear the screen between refreshes.").BoolVar(&c.noClear)

	return c
}

func (c WatchCommand) Name() string { return c.Cmd.FullCommand() }

func (c WatchCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	cfg, err := c.rootCmd.loadConfig(ctx)
	if err != nil {
		return err
	}
	if c.intervalMS != 0 {
		cfg.RefreshInterval = time.Duration(c.intervalMS) * time.Millisecond
	}

	client, err := c.rootCmd.newBackend(cfg)
	if err != nil {
		return err
	}

	ui, closeUI, err := c.rootCmd.loadUIState(ctx)
	if err != nil {
		return err
	}
	defer closeUI()

	// The renderer needs the dashboard service that needs the refresh service, the
	// renderer is set once both exist.
	var dashboardSvc *dashboard.Service
	p := c.rootCmd.newPrinter(c.format)
	renderer := refresh.RendererFunc(func(ctx context.Context, st refresh.State) error {
		if dashboardSvc == nil {
			return nil
		}

		if c.format == formatTable && !c.noClear {
			fmt.Fprint(c.rootCmd.Stdout, clearScreen)
		}
		d := dashboardSvc.Build(st, dashboard.Request{NodeFilter: c.nodeFilter})
		return p.PrintDashboard(d)
	})

	refreshSvc, err := refresh.NewService(refresh.ServiceConfig{
		Backend:  client,
		Renderer: renderer,
		Interval: cfg.RefreshInterval,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("could not create refresh service: %w", err)
	}

	dashboardSvc, err = dashboard.NewService(dashboard.ServiceConfig{
		Refresh: refreshSvc,
		UIState: ui,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create dashboard service: %w", err)
	}

	logger.Infof("Watching %s every %s", cfg.BackendURL, cfg.RefreshInterval)
	return refreshSvc.Run(ctx)
}
