package io

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stagewatch/internal/model"
)

func TestConfigYAMLRepository_GetConfig(t *testing.T) {
	tests := map[string]struct {
		fs     fstest.MapFS
		path   string
		expCfg func() model.DashboardConfig
		expErr bool
		errMsg string
	}{
		"An empty config should use the defaults.": {
			fs: fstest.MapFS{
				"dash.yaml": &fstest.MapFile{Data: []byte("---\n")},
			},
			path: "dash.yaml",
			expCfg: func() model.DashboardConfig {
				return model.DashboardConfig{
					Endpoints:       model.DefaultEndpoints(),
					RefreshInterval: 5 * time.Second,
				}
			},
		},
		"Endpoint overrides should replace only the configured endpoints.": {
			fs: fstest.MapFS{
				"dash.yaml": &fstest.MapFile{Data: []byte(`backend_url: http://127.0.0.1:5000
refresh_interval_ms: 10000
endpoints:
  status:
    path: /api/status
  structure:
    path: /api/structure
    selector: .structure
`)},
			},
			path: "dash.yaml",
			expCfg: func() model.DashboardConfig {
				e := model.DefaultEndpoints()
				e.Status = model.Endpoint{Path: "/api/status"}
				e.Structure = model.Endpoint{Path: "/api/structure", Selector: ".structure"}
				return model.DashboardConfig{
					BackendURL:      "http://127.0.0.1:5000",
					Endpoints:       e,
					RefreshInterval: 10 * time.Second,
				}
			},
		},
		"A not allowed refresh interval should fail.": {
			fs: fstest.MapFS{
				"dash.yaml": &fstest.MapFile{Data: []byte("refresh_interval_ms: 1234\n")},
			},
			path:   "dash.yaml",
			expErr: true,
			errMsg: "refresh_interval_ms",
		},
		"An invalid backend URL scheme should fail.": {
			fs: fstest.MapFS{
				"dash.yaml": &fstest.MapFile{Data: []byte("backend_url: ftp://example.com\n")},
			},
			path:   "dash.yaml",
			expErr: true,
			errMsg: "backend_url",
		},
		"A relative endpoint path should fail.": {
			fs: fstest.MapFS{
				"dash.yaml": &fstest.MapFile{Data: []byte("endpoints:\n  errors:\n    path: api/errors\n")},
			},
			path:   "dash.yaml",
			expErr: true,
			errMsg: "endpoint errors",
		},
		"An invalid jq selector should fail.": {
			fs: fstest.MapFS{
				"dash.yaml": &fstest.MapFile{Data: []byte("endpoints:\n  status:\n    path: /s\n    selector: '.['\n")},
			},
			path:   "dash.yaml",
			expErr: true,
			errMsg: "invalid jq selector",
		},
		"Missing file should return error.": {
			fs:     fstest.MapFS{},
			path:   "nonexistent.yaml",
			expErr: true,
			errMsg: "reading config file",
		},
		"Invalid YAML should return error.": {
			fs: fstest.MapFS{
				"invalid.yaml": &fstest.MapFile{Data: []byte(`invalid: yaml: content: {}`)},
			},
			path:   "invalid.yaml",
			expErr: true,
			errMsg: "parsing YAML",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			repo := NewConfigYAMLRepository(tc.fs)
			cfg, err := repo.GetConfig(context.Background(), tc.path)

			if tc.expErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expCfg(), cfg)
		})
	}
}

func TestConfigYAMLRepository_GetConfig_ContextCancellation(t *testing.T) {
	fs := fstest.MapFS{
		"test.yaml": &fstest.MapFile{Data: []byte("backend_url: http://localhost:5000\n")},
	}

	repo := NewConfigYAMLRepository(fs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := repo.GetConfig(ctx, "test.yaml")
	require.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}
