package lib

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/slok/stagewatch/internal/app/dashboard"
	"github.com/slok/stagewatch/internal/app/inject"
	"github.com/slok/stagewatch/internal/app/refresh"
	"github.com/slok/stagewatch/internal/app/shutdown"
	"github.com/slok/stagewatch/internal/backend"
	"github.com/slok/stagewatch/internal/conventions"
	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/storage"
	"github.com/slok/stagewatch/internal/storage/memory"
	"github.com/slok/stagewatch/internal/storage/sqlite"
	"github.com/slok/stagewatch/internal/uistate"
)

// Config configures the SDK client.
//
// BackendURL is required, everything else has defaults.
type Config struct {
	// BackendURL is the task backend base URL (e.g. http://127.0.0.1:5000).
	BackendURL string

	// Endpoints overrides the backend endpoint paths, empty paths use the defaults.
	Endpoints Endpoints

	// DBPath is the SQLite UI state database path.
	// Default: ~/.stagewatch/stagewatch.db.
	DBPath string

	// InMemoryState keeps the UI state in memory, nothing is persisted.
	InMemoryState bool

	// HTTPClient is the client used to reach the backend.
	// Default: instrumented client with Timeout.
	HTTPClient *http.Client

	// Timeout is the backend request timeout when HTTPClient is not set.
	// Default: 10s.
	Timeout time.Duration

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

// Endpoints are the backend endpoint paths and optional jq selectors.
type Endpoints struct {
	Status    Endpoint
	Structure Endpoint
	Errors    Endpoint
	Interval  Endpoint
	Shutdown  Endpoint
	Inject    Endpoint
}

// Endpoint is a backend endpoint path with an optional jq selector applied to
// the JSON response before decoding.
type Endpoint struct {
	Path     string
	Selector string
}

func (c *Config) defaults() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend URL is required: %w", ErrNotValid)
	}

	if c.DBPath == "" && !c.InMemoryState {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DBPath = conventions.DBPath(home)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	backend   backend.Client
	ui        *uistate.State
	refresh   *refresh.Service
	dashboard *dashboard.Service
	shutdown  *shutdown.Service
	inject    *inject.Service
	logger    log.Logger
	closeFn   func() error
}

// New creates a new SDK client.
//
// The caller must call [Client.Close] when done to release the UI state database.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, mapError(fmt.Errorf("invalid config: %w", err))
	}

	client, err := backend.NewHTTPClient(backend.HTTPClientConfig{
		BaseURL:    cfg.BackendURL,
		Endpoints:  toInternalEndpoints(cfg.Endpoints),
		HTTPClient: cfg.HTTPClient,
		Timeout:    cfg.Timeout,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create backend client: %w", err))
	}

	var (
		repo    storage.Repository
		closeFn = func() error { return nil }
	)
	if cfg.InMemoryState {
		repo, err = memory.NewRepository(memory.RepositoryConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
	} else {
		sqliteRepo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: cfg.DBPath,
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create repository: %w", err)
		}
		repo, closeFn = sqliteRepo, sqliteRepo.Close
	}

	c := &Client{backend: client, logger: cfg.Logger, closeFn: closeFn}
	if err := c.init(ctx, repo); err != nil {
		_ = closeFn()
		return nil, err
	}

	return c, nil
}

func (c *Client) init(ctx context.Context, repo storage.Repository) (err error) {
	c.ui, err = uistate.Load(ctx, uistate.Config{Repository: repo, Logger: c.logger})
	if err != nil {
		return fmt.Errorf("could not load UI state: %w", err)
	}

	c.refresh, err = refresh.NewService(refresh.ServiceConfig{Backend: c.backend, Logger: c.logger})
	if err != nil {
		return fmt.Errorf("could not create refresh service: %w", err)
	}

	c.dashboard, err = dashboard.NewService(dashboard.ServiceConfig{Refresh: c.refresh, UIState: c.ui, Logger: c.logger})
	if err != nil {
		return fmt.Errorf("could not create dashboard service: %w", err)
	}

	c.shutdown, err = shutdown.NewService(shutdown.ServiceConfig{Backend: c.backend, Logger: c.logger})
	if err != nil {
		return fmt.Errorf("could not create shutdown service: %w", err)
	}

	c.inject, err = inject.NewService(inject.ServiceConfig{Backend: c.backend, Logger: c.logger})
	if err != nil {
		return fmt.Errorf("could not create inject service: %w", err)
	}

	return nil
}

// Close releases resources held by the client, including the database connection.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

// Dashboard fetches the backend and returns the whole dashboard. Pass nil opts
// to use the defaults. Failed endpoints keep the data of the previous fetch of
// this client and are listed in the StaleEndpoints field.
func (c *Client) Dashboard(ctx context.Context, opts *DashboardOpts) (*Dashboard, error) {
	st := c.refresh.Tick(ctx)
	d := c.dashboard.Build(st, toInternalDashboardRequest(opts))
	res := fromInternalDashboard(d)
	return &res, nil
}

// Status returns the node cards in display order and their totals.
func (c *Client) Status(ctx context.Context) ([]NodeCard, Summary, error) {
	d, err := c.fetch(ctx, nil, backend.EndpointStatus)
	if err != nil {
		return nil, Summary{}, err
	}
	return d.Cards, d.Summary, nil
}

// Structure returns the stage tree, nil when the backend has no structure.
func (c *Client) Structure(ctx context.Context) (*StageTreeNode, error) {
	d, err := c.fetch(ctx, nil, backend.EndpointStructure)
	if err != nil {
		return nil, err
	}
	return d.Tree, nil
}

// Errors returns the task errors of a node (all nodes when empty), most recent first.
func (c *Client) Errors(ctx context.Context, node string) ([]TaskError, error) {
	d, err := c.fetch(ctx, &DashboardOpts{NodeFilter: node}, backend.EndpointErrors)
	if err != nil {
		return nil, err
	}
	return d.Errors, nil
}

func (c *Client) fetch(ctx context.Context, opts *DashboardOpts, required string) (*Dashboard, error) {
	st := c.refresh.Tick(ctx)
	if slices.Contains(st.FailedEndpoints, required) {
		return nil, fmt.Errorf("could not fetch %s", required)
	}

	d := fromInternalDashboard(c.dashboard.Build(st, toInternalDashboardRequest(opts)))
	return &d, nil
}

// SetRefreshInterval pushes a refresh interval to the backend. Allowed values are
// 1s, 2s, 5s, 10s, 30s and 60s.
func (c *Client) SetRefreshInterval(ctx context.Context, interval time.Duration) error {
	if err := model.ValidateRefreshInterval(interval); err != nil {
		return mapError(err)
	}

	if err := c.backend.PushInterval(ctx, interval); err != nil {
		return mapError(fmt.Errorf("could not push interval: %w", err))
	}

	return nil
}

// Shutdown shuts down the backend and returns its response message as is. It
// fails with [ErrNotConfirmed] unless opts confirm the shutdown.
func (c *Client) Shutdown(ctx context.Context, opts *ShutdownOpts) (string, error) {
	confirmed := opts != nil && opts.Confirm
	msg, err := c.shutdown.Run(ctx, shutdown.Request{Confirmed: confirmed})
	if err != nil {
		return "", mapError(err)
	}
	return msg, nil
}

// InjectTasks sends task data to a backend node.
func (c *Client) InjectTasks(ctx context.Context, node string, data map[string]any) error {
	if len(data) == 0 {
		return fmt.Errorf("task data is required: %w", ErrNotValid)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("task data is not JSON serializable: %s: %w", err, ErrNotValid)
	}

	if _, err := c.inject.Run(ctx, inject.Request{Node: node, Data: raw}); err != nil {
		return mapError(err)
	}

	return nil
}

// ToggleCollapsed toggles the collapse state of a stage tree node id and returns
// the new state.
func (c *Client) ToggleCollapsed(ctx context.Context, nodeID string) bool {
	return c.ui.Collapse.Toggle(ctx, nodeID)
}

// SetCardOrder sets the status card order, unlisted nodes go after in backend order.
func (c *Client) SetCardOrder(ctx context.Context, names []string) {
	c.ui.Order.Set(ctx, names)
}

// ToggleHiddenSeries toggles the chart series visibility of a node and returns
// true when the series is now hidden.
func (c *Client) ToggleHiddenSeries(ctx context.Context, node string) bool {
	return c.ui.Hidden.Toggle(ctx, node)
}

// SetTheme sets the dashboard theme.
func (c *Client) SetTheme(ctx context.Context, theme Theme) error {
	return mapError(c.ui.Theme.Set(ctx, uistate.ThemeName(theme)))
}

// ResetUIState drops the persisted UI state, everything goes back to the defaults.
func (c *Client) ResetUIState(ctx context.Context) {
	c.ui.Reset(ctx)
}

// UIState returns the persisted UI state.
func (c *Client) UIState() UIState {
	return fromInternalUIState(c.dashboard.UIState())
}
