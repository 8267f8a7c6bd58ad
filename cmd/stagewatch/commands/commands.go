package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/stagewatch/internal/app/dashboard"
	"github.com/slok/stagewatch/internal/app/refresh"
	"github.com/slok/stagewatch/internal/backend"
	"github.com/slok/stagewatch/internal/conventions"
	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/printer"
	"github.com/slok/stagewatch/internal/storage"
	storageio "github.com/slok/stagewatch/internal/storage/io"
	"github.com/slok/stagewatch/internal/storage/memory"
	storageredis "github.com/slok/stagewatch/internal/storage/redis"
	"github.com/slok/stagewatch/internal/storage/sqlite"
	"github.com/slok/stagewatch/internal/uistate"
	"github.com/slok/stagewatch/internal/view"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	// StateBackendSQLite stores the UI state in a local SQLite database.
	StateBackendSQLite = "sqlite"
	// StateBackendMemory keeps the UI state only for the process lifetime.
	StateBackendMemory = "memory"
	// StateBackendRedis stores the UI state in Redis, shared between dashboards.
	StateBackendRedis = "redis"

	formatTable = "table"
	formatJSON  = "json"
	formatText  = "text"

	defaultBackendURL = "http://127.0.0.1:5000"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug        bool
	NoLog        bool
	NoColor      bool
	LoggerType   string
	DBPath       string
	StateBackend string
	RedisAddr    string
	ConfigPath   string
	BackendURL   string
	Timeout      time.Duration

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger and output color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	home := homedir.HomeDir()
	app.Flag("db-path", "Path to the SQLite UI state database file.").Default(conventions.DBPath(home)).StringVar(&c.DBPath)
	app.Flag("state-backend", "Where the UI state is persisted.").Default(StateBackendSQLite).EnumVar(&c.StateBackend, StateBackendSQLite, StateBackendMemory, StateBackendRedis)
	app.Flag("redis-addr", "Redis address used by the redis state backend.").Default("127.0.0.1:6379").StringVar(&c.RedisAddr)
	app.Flag("config", "Path to the dashboard YAML configuration, the default path is optional.").Default(conventions.ConfigPath(home)).StringVar(&c.ConfigPath)
	app.Flag("backend-url", "Task backend base URL, overrides the configuration file.").StringVar(&c.BackendURL)
	app.Flag("timeout", "Backend request timeout.").Default("10s").DurationVar(&c.Timeout)

	return c
}

// loadConfig loads the dashboard configuration. A missing file at the default path
// is not an error, the defaults are used.
func (c *RootCommand) loadConfig(ctx context.Context) (model.DashboardConfig, error) {
	cfg := model.DashboardConfig{
		BackendURL:      defaultBackendURL,
		Endpoints:       model.DefaultEndpoints(),
		RefreshInterval: model.DefaultRefreshInterval,
	}

	if c.ConfigPath != "" {
		abs, err := filepath.Abs(c.ConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("invalid config path: %w", err)
		}

		repo := storageio.NewConfigYAMLRepository(os.DirFS(filepath.Dir(abs)))
		loaded, err := repo.GetConfig(ctx, filepath.Base(abs))
		switch {
		case err == nil:
			if loaded.BackendURL == "" {
				loaded.BackendURL = cfg.BackendURL
			}
			cfg = loaded
		case errors.Is(err, fs.ErrNotExist) && c.ConfigPath == conventions.ConfigPath(homedir.HomeDir()):
			c.Logger.Debugf("No configuration file at %s, using defaults", c.ConfigPath)
		default:
			return cfg, fmt.Errorf("could not load configuration: %w", err)
		}
	}

	if c.BackendURL != "" {
		cfg.BackendURL = c.BackendURL
	}

	return cfg, nil
}

// newBackend returns the backend HTTP client of the configuration.
func (c *RootCommand) newBackend(cfg model.DashboardConfig) (backend.Client, error) {
	client, err := backend.NewHTTPClient(backend.HTTPClientConfig{
		BaseURL:   cfg.BackendURL,
		Endpoints: cfg.Endpoints,
		Timeout:   c.Timeout,
		Logger:    c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create backend client: %w", err)
	}

	return client, nil
}

// newRepository returns the UI state repository and a function to release it.
func (c *RootCommand) newRepository(ctx context.Context) (storage.Repository, func(), error) {
	noClose := func() {}

	switch c.StateBackend {
	case StateBackendMemory:
		repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: c.Logger})
		if err != nil {
			return nil, noClose, fmt.Errorf("could not create memory repository: %w", err)
		}
		return repo, noClose, nil

	case StateBackendRedis:
		repo, err := storageredis.NewRepository(ctx, storageredis.RepositoryConfig{
			Addr:   c.RedisAddr,
			Logger: c.Logger,
		})
		if err != nil {
			return nil, noClose, fmt.Errorf("could not create redis repository: %w", err)
		}
		closer := func() {
			if err := repo.Close(); err != nil {
				c.Logger.Warningf("Could not close repository: %s", err)
			}
		}
		return repo, closer, nil

	default:
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: c.DBPath,
			Logger: c.Logger,
		})
		if err != nil {
			return nil, noClose, fmt.Errorf("could not create sqlite repository: %w", err)
		}
		closer := func() {
			if err := repo.Close(); err != nil {
				c.Logger.Warningf("Could not close repository: %s", err)
			}
		}
		return repo, closer, nil
	}
}

// loadUIState loads the persisted UI state.
func (c *RootCommand) loadUIState(ctx context.Context) (*uistate.State, func(), error) {
	repo, closer, err := c.newRepository(ctx)
	if err != nil {
		return nil, closer, err
	}

	st, err := uistate.Load(ctx, uistate.Config{Repository: repo, Logger: c.Logger})
	if err != nil {
		closer()
		return nil, func() {}, fmt.Errorf("could not load UI state: %w", err)
	}

	return st, closer, nil
}

// newPrinter returns the printer of an output format.
func (c *RootCommand) newPrinter(format string) printer.Printer {
	switch format {
	case formatJSON:
		return printer.NewJSONPrinter(c.Stdout)
	default: // table
		if c.NoColor {
			return printer.NewTablePrinter(c.Stdout)
		}
		return printer.NewColorTablePrinter(c.Stdout)
	}
}

// fetchDashboard runs a single refresh tick and builds the dashboard. It fails
// when any of the required endpoints could not be fetched.
func (c *RootCommand) fetchDashboard(ctx context.Context, req dashboard.Request, required ...string) (view.Dashboard, error) {
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return view.Dashboard{}, err
	}

	client, err := c.newBackend(cfg)
	if err != nil {
		return view.Dashboard{}, err
	}

	ui, closeUI, err := c.loadUIState(ctx)
	if err != nil {
		return view.Dashboard{}, err
	}
	defer closeUI()

	refreshSvc, err := refresh.NewService(refresh.ServiceConfig{
		Backend:  client,
		Interval: cfg.RefreshInterval,
		Logger:   c.Logger,
	})
	if err != nil {
		return view.Dashboard{}, fmt.Errorf("could not create refresh service: %w", err)
	}

	dashboardSvc, err := dashboard.NewService(dashboard.ServiceConfig{
		Refresh: refreshSvc,
		UIState: ui,
		Logger:  c.Logger,
	})
	if err != nil {
		return view.Dashboard{}, fmt.Errorf("could not create dashboard service: %w", err)
	}

	st := refreshSvc.Tick(ctx)
	for _, endpoint := range required {
		if slices.Contains(st.FailedEndpoints, endpoint) {
			return view.Dashboard{}, fmt.Errorf("could not fetch %s from %s", endpoint, cfg.BackendURL)
		}
	}

	return dashboardSvc.Build(st, req), nil
}
