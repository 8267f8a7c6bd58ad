// Package uistate has the dashboard user state that survives refreshes and
// restarts: collapsed tree nodes, manual card order, hidden chart series and
// theme.
//
// State is loaded once and every mutation is written synchronously to the
// repository. A failed write is logged and the in-memory state stays
// authoritative for the session.
package uistate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/storage"
)

// Persisted keys.
const (
	KeyTheme     = "theme"
	KeyCollapsed = "collapsedNodes"
	KeyOrder     = "dashboardOrder"
	KeyHidden    = "hiddenNodes"
)

// Config is the configuration to load the UI state.
type Config struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *Config) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "uistate.State"})
	return nil
}

// State is the dashboard UI state.
type State struct {
	Collapse *Collapse
	Order    *Order
	Hidden   *Hidden
	Theme    *Theme
}

// Load loads the UI state from the repository. Missing or corrupted values load
// as their defaults.
func Load(ctx context.Context, cfg Config) (*State, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &State{
		Collapse: loadCollapse(ctx, newStore(KeyCollapsed, cfg.Repository, cfg.Logger)),
		Order:    loadOrder(ctx, newStore(KeyOrder, cfg.Repository, cfg.Logger)),
		Hidden:   loadHidden(ctx, newStore(KeyHidden, cfg.Repository, cfg.Logger)),
		Theme:    loadTheme(ctx, newStore(KeyTheme, cfg.Repository, cfg.Logger)),
	}, nil
}

// Reset drops every persisted value, the state goes back to its defaults.
func (s *State) Reset(ctx context.Context) {
	s.Collapse.set.reset(ctx)
	s.Hidden.set.reset(ctx)
	s.Order.reset(ctx)
	s.Theme.reset(ctx)
}

// store reads and writes a single key.
type store struct {
	key    string
	repo   storage.Repository
	logger log.Logger
}

func newStore(key string, repo storage.Repository, logger log.Logger) store {
	return store{key: key, repo: repo, logger: logger.WithValues(log.Kv{"key": key})}
}

func (s store) loadRaw(ctx context.Context) (string, bool) {
	v, err := s.repo.GetValue(ctx, s.key)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.logger.Warningf("Could not load persisted UI state, using defaults: %s", err)
		}
		return "", false
	}
	return v, true
}

func (s store) loadList(ctx context.Context) []string {
	raw, ok := s.loadRaw(ctx)
	if !ok {
		return nil
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		s.logger.Warningf("Ignoring corrupted persisted UI state: %s", err)
		return nil
	}
	return list
}

func (s store) saveRaw(ctx context.Context, v string) {
	if err := s.repo.SetValue(ctx, s.key, v); err != nil {
		s.logger.Errorf("Could not persist UI state: %s", err)
	}
}

func (s store) clear(ctx context.Context) {
	if err := s.repo.ClearValue(ctx, s.key); err != nil {
		s.logger.Errorf("Could not clear persisted UI state: %s", err)
	}
}

func (s store) saveList(ctx context.Context, list []string) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		s.logger.Errorf("Could not encode UI state: %s", err)
		return
	}
	s.saveRaw(ctx, string(data))
}
