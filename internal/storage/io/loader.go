package io

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"

	"github.com/slok/stagewatch/internal/model"
)

// ConfigYAMLRepository loads dashboard configuration from YAML files.
type ConfigYAMLRepository struct {
	fs fs.FS
}

// NewConfigYAMLRepository creates a new YAML config repository.
func NewConfigYAMLRepository(filesystem fs.FS) *ConfigYAMLRepository {
	return &ConfigYAMLRepository{fs: filesystem}
}

// GetConfig loads a dashboard configuration from a YAML file and returns a validated domain model.
// Endpoints not present in the file use the defaults.
func (r *ConfigYAMLRepository) GetConfig(ctx context.Context, path string) (model.DashboardConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.DashboardConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return model.DashboardConfig{}, ctx.Err()
	}

	var cfg DashboardConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.DashboardConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return model.DashboardConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg.toModel(), nil
}

// DashboardConfig represents the YAML structure for the dashboard configuration.
type DashboardConfig struct {
	BackendURL        string          `yaml:"backend_url"`
	RefreshIntervalMS int             `yaml:"refresh_interval_ms"`
	Endpoints         EndpointsConfig `yaml:"endpoints"`
}

// EndpointsConfig represents the YAML structure for the backend endpoint mapping.
type EndpointsConfig struct {
	Status    *EndpointConfig `yaml:"status,omitempty"`
	Structure *EndpointConfig `yaml:"structure,omitempty"`
	Errors    *EndpointConfig `yaml:"errors,omitempty"`
	Interval  *EndpointConfig `yaml:"interval,omitempty"`
	Shutdown  *EndpointConfig `yaml:"shutdown,omitempty"`
	Inject    *EndpointConfig `yaml:"inject,omitempty"`
}

// EndpointConfig represents the YAML structure of a single endpoint.
type EndpointConfig struct {
	Path     string `yaml:"path"`
	Selector string `yaml:"selector"`
}

func (c DashboardConfig) validate() error {
	if c.BackendURL != "" {
		u, err := url.Parse(c.BackendURL)
		if err != nil {
			return fmt.Errorf("invalid backend_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("backend_url scheme must be http or https, got: %q", u.Scheme)
		}
	}

	if c.RefreshIntervalMS != 0 {
		d := time.Duration(c.RefreshIntervalMS) * time.Millisecond
		if err := model.ValidateRefreshInterval(d); err != nil {
			return fmt.Errorf("refresh_interval_ms: %w", err)
		}
	}

	endpoints := map[string]*EndpointConfig{
		"status":    c.Endpoints.Status,
		"structure": c.Endpoints.Structure,
		"errors":    c.Endpoints.Errors,
		"interval":  c.Endpoints.Interval,
		"shutdown":  c.Endpoints.Shutdown,
		"inject":    c.Endpoints.Inject,
	}
	for name, e := range endpoints {
		if e == nil {
			continue
		}
		if err := e.validate(); err != nil {
			return fmt.Errorf("endpoint %s: %w", name, err)
		}
	}

	return nil
}

func (e EndpointConfig) validate() error {
	if !strings.HasPrefix(e.Path, "/") {
		return fmt.Errorf("path must start with '/', got: %q", e.Path)
	}
	if e.Selector != "" {
		if _, err := gojq.Parse(e.Selector); err != nil {
			return fmt.Errorf("invalid jq selector %q: %w", e.Selector, err)
		}
	}
	return nil
}

func (c DashboardConfig) toModel() model.DashboardConfig {
	cfg := model.DashboardConfig{
		BackendURL:      c.BackendURL,
		Endpoints:       model.DefaultEndpoints(),
		RefreshInterval: model.DefaultRefreshInterval,
	}
	if c.RefreshIntervalMS != 0 {
		cfg.RefreshInterval = time.Duration(c.RefreshIntervalMS) * time.Millisecond
	}

	override := func(dst *model.Endpoint, src *EndpointConfig) {
		if src == nil {
			return
		}
		*dst = model.Endpoint{Path: src.Path, Selector: src.Selector}
	}
	override(&cfg.Endpoints.Status, c.Endpoints.Status)
	override(&cfg.Endpoints.Structure, c.Endpoints.Structure)
	override(&cfg.Endpoints.Errors, c.Endpoints.Errors)
	override(&cfg.Endpoints.Interval, c.Endpoints.Interval)
	override(&cfg.Endpoints.Shutdown, c.Endpoints.Shutdown)
	override(&cfg.Endpoints.Inject, c.Endpoints.Inject)

	return cfg
}
