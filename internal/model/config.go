package model

import (
	"fmt"
	"slices"
	"time"
)

// DefaultRefreshInterval is the refresh interval used when none is configured.
const DefaultRefreshInterval = 5 * time.Second

// AllowedRefreshIntervals are the refresh intervals a user can select.
var AllowedRefreshIntervals = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
	30 * time.Second,
	60 * time.Second,
}

// ValidateRefreshInterval checks the interval is one of the allowed intervals.
func ValidateRefreshInterval(d time.Duration) error {
	if !slices.Contains(AllowedRefreshIntervals, d) {
		return fmt.Errorf("refresh interval %s is not allowed: %w", d, ErrNotValid)
	}
	return nil
}

// Endpoint is a backend HTTP endpoint.
type Endpoint struct {
	Path string
	// Selector is an optional jq expression applied to the JSON response before decoding.
	Selector string
}

// Endpoints is the mapping of the backend endpoints, paths change between backend revisions.
type Endpoints struct {
	Status    Endpoint
	Structure Endpoint
	Errors    Endpoint
	Interval  Endpoint
	Shutdown  Endpoint
	Inject    Endpoint
}

// DefaultEndpoints returns the endpoints of the current backend revision.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Status:    Endpoint{Path: "/api/get_status"},
		Structure: Endpoint{Path: "/api/get_structure"},
		Errors:    Endpoint{Path: "/api/get_errors"},
		Interval:  Endpoint{Path: "/api/push_interval"},
		Shutdown:  Endpoint{Path: "/shutdown"},
		Inject:    Endpoint{Path: "/api/push_task_injection"},
	}
}

// DashboardConfig is the dashboard configuration.
type DashboardConfig struct {
	BackendURL      string
	Endpoints       Endpoints
	RefreshInterval time.Duration
}
