package commands

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stagewatch/internal/app/dashboard"
	"github.com/slok/stagewatch/internal/backend"
	"github.com/slok/stagewatch/internal/backend/fake"
	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
)

func TestRootCommandLoadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(cfgPath, []byte(`
backend_url: http://backend:5000
refresh_interval_ms: 10000
endpoints:
  status:
    path: /v2/status
`), 0o644)
	require.NoError(t, err)

	defaultEndpoints := model.DefaultEndpoints()
	fileEndpoints := model.DefaultEndpoints()
	fileEndpoints.Status = model.Endpoint{Path: "/v2/status"}

	tests := map[string]struct {
		root   RootCommand
		expCfg model.DashboardConfig
		expErr bool
	}{
		"without config file the defaults should be used": {
			root: RootCommand{},
			expCfg: model.DashboardConfig{
				BackendURL:      defaultBackendURL,
				Endpoints:       defaultEndpoints,
				RefreshInterval: model.DefaultRefreshInterval,
			},
		},

		"a config file should be loaded": {
			root: RootCommand{ConfigPath: cfgPath},
			expCfg: model.DashboardConfig{
				BackendURL:      "http://backend:5000",
				Endpoints:       fileEndpoints,
				RefreshInterval: 10 * time.Second,
			},
		},

		"the backend URL flag should override the config file": {
			root: RootCommand{ConfigPath: cfgPath, BackendURL: "http://other:8000"},
			expCfg: model.DashboardConfig{
				BackendURL:      "http://other:8000",
				Endpoints:       fileEndpoints,
				RefreshInterval: 10 * time.Second,
			},
		},

		"a missing explicit config file should fail": {
			root:   RootCommand{ConfigPath: filepath.Join(dir, "missing.yaml")},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			root := test.root
			root.Logger = log.Noop

			cfg, err := root.loadConfig(context.Background())
			if test.expErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expCfg, cfg)
		})
	}
}

func TestPromptConfirmer(t *testing.T) {
	tests := map[string]struct {
		input      string
		expConfirm bool
	}{
		"y should confirm":            {input: "y\n", expConfirm: true},
		"yes should confirm":          {input: "YES\n", expConfirm: true},
		"no should not confirm":       {input: "no\n"},
		"empty answer should not":     {input: "\n"},
		"closed input should not":     {input: ""},
		"an answer without EOL works": {input: "yes", expConfirm: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var out strings.Builder
			c := newPromptConfirmer(strings.NewReader(test.input), &out)

			ok, err := c.Confirm(context.Background(), "Sure?")
			require.NoError(t, err)
			assert.Equal(t, test.expConfirm, ok)
			assert.Equal(t, "Sure? [y/N]: ", out.String())
		})
	}
}

func TestRootCommandFetchDashboard(t *testing.T) {
	status := model.NewStatusSnapshot()
	status.Set("B", model.NodeStatus{State: model.NodeStateRunning, TasksProcessed: 4, TasksPending: 1})
	status.Set("A", model.NodeStatus{State: model.NodeStateStopped})

	tests := map[string]struct {
		prepare  func(b *fake.Backend)
		required []string
		expCards []string
		expErr   bool
	}{
		"a healthy backend should return the dashboard in backend order": {
			required: []string{backend.EndpointStatus},
			expCards: []string{"B", "A"},
		},

		"a failing required endpoint should fail": {
			prepare: func(b *fake.Backend) {
				b.SetFailure(backend.EndpointStatus, fmt.Errorf("boom"))
			},
			required: []string{backend.EndpointStatus},
			expErr:   true,
		},

		"a failing optional endpoint should not fail": {
			prepare: func(b *fake.Backend) {
				b.SetFailure(backend.EndpointErrors, fmt.Errorf("boom"))
			},
			required: []string{backend.EndpointStatus},
			expCards: []string{"B", "A"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			fb, err := fake.NewBackend(fake.BackendConfig{Status: status})
			require.NoError(t, err)
			if test.prepare != nil {
				test.prepare(fb)
			}
			srv := httptest.NewServer(fb.Handler())
			defer srv.Close()

			root := RootCommand{
				StateBackend: StateBackendMemory,
				BackendURL:   srv.URL,
				Timeout:      time.Second,
				Logger:       log.Noop,
			}

			d, err := root.fetchDashboard(context.Background(), dashboard.Request{}, test.required...)
			if test.expErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			var names []string
			for _, c := range d.Cards {
				names = append(names, c.Name)
			}
			assert.Equal(t, test.expCards, names)
		})
	}
}
