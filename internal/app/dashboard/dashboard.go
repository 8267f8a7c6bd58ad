package dashboard

import (
	"context"
	"fmt"

	"github.com/slok/stagewatch/internal/app/refresh"
	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/uistate"
	"github.com/slok/stagewatch/internal/view"
)

// StateGetter returns the last settled refresh state.
type StateGetter interface {
	State() refresh.State
}

// ServiceConfig is the configuration for the dashboard service.
type ServiceConfig struct {
	Refresh StateGetter
	UIState *uistate.State
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Refresh == nil {
		return fmt.Errorf("refresh state getter is required")
	}

	if c.UIState == nil {
		return fmt.Errorf("UI state is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service builds the dashboard view from the refresh state and the UI state.
type Service struct {
	refresh StateGetter
	ui      *uistate.State
	logger  log.Logger
}

// NewService creates a new dashboard service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		refresh: cfg.Refresh,
		ui:      cfg.UIState,
		logger:  cfg.Logger,
	}, nil
}

// Request represents the transient view options of a render.
type Request struct {
	// NodeFilter filters the error log by node, empty means all.
	NodeFilter string
	// Dragging is the card being relocated, excluded from this render.
	Dragging string
	// InjectionSearch filters the injection node list.
	InjectionSearch string
}

// Run builds the dashboard with the last settled refresh state.
func (s *Service) Run(ctx context.Context, req Request) (*view.Dashboard, error) {
	d := s.Build(s.refresh.State(), req)
	return &d, nil
}

// Build builds the dashboard of a refresh state.
func (s *Service) Build(st refresh.State, req Request) view.Dashboard {
	return view.Build(view.Input{
		Status:          st.Status,
		Structure:       st.Structure,
		Errors:          st.Errors,
		Order:           s.ui.Order.Names(),
		Dragging:        req.Dragging,
		NodeFilter:      req.NodeFilter,
		InjectionSearch: req.InjectionSearch,
		Collapse:        s.ui.Collapse,
		Hidden:          s.ui.Hidden,
		Theme:           string(s.ui.Theme.Get()),
		RefreshInterval: st.Interval,
		UpdatedAt:       st.UpdatedAt,
		FailedEndpoints: st.FailedEndpoints,
	})
}

// UIState returns the persisted UI state.
func (s *Service) UIState() view.UIState {
	return view.UIState{
		Theme:     string(s.ui.Theme.Get()),
		Collapsed: s.ui.Collapse.IDs(),
		Order:     s.ui.Order.Names(),
		Hidden:    s.ui.Hidden.Names(),
	}
}
