package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/slok/stagewatch/internal/app/dashboard"
	"github.com/slok/stagewatch/internal/app/inject"
	"github.com/slok/stagewatch/internal/app/refresh"
	"github.com/slok/stagewatch/internal/app/shutdown"
	"github.com/slok/stagewatch/internal/web"
)

type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listenAddr string
	intervalMS int64
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve", "Serve the web dashboard, its JSON API and the metrics.")
	c.Cmd.Flag("listen-addr", "Address the dashboard listens on.").Default(":8080").StringVar(&c.listenAddr)
	c.Cmd.Flag("interval", "Refresh interval in milliseconds (1000, 2000, 5000, 10000, 30000, 60000), overrides the configuration.").Int64Var(&c.intervalMS)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
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

	// The page is built on request, the refresh only keeps the models up to date.
	refreshSvc, err := refresh.NewService(refresh.ServiceConfig{
		Backend:  client,
		Interval: cfg.RefreshInterval,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("could not create refresh service: %w", err)
	}

	dashboardSvc, err := dashboard.NewService(dashboard.ServiceConfig{
		Refresh: refreshSvc,
		UIState: ui,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create dashboard service: %w", err)
	}

	shutdownSvc, err := shutdown.NewService(shutdown.ServiceConfig{
		Backend: client,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create shutdown service: %w", err)
	}

	injectSvc, err := inject.NewService(inject.ServiceConfig{
		Backend: client,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create inject service: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		ListenAddr: c.listenAddr,
		Refresh:    refreshSvc,
		Dashboard:  dashboardSvc,
		UIState:    ui,
		Shutdown:   shutdownSvc,
		Inject:     injectSvc,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create web server: %w", err)
	}

	var g run.Group

	// Refresh loop.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error { return refreshSvc.Run(ctx) },
			func(_ error) { cancel() },
		)
	}

	// Web server.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error { return server.Run(ctx) },
			func(_ error) { cancel() },
		)
	}

	return g.Run()
}
