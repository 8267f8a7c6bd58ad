package stagewatch

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/stagewatch/internal/backend/fake"
	"github.com/slok/stagewatch/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "stagewatch"
	}

	// go test changes the CWD to the test package directory, relative paths
	// would not resolve.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("STAGEWATCH_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("stagewatch binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "STAGEWATCH_INTEGRATION"
		envBinary     = "STAGEWATCH_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{Binary: os.Getenv(envBinary)}
	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// Env is an isolated environment: a fake task backend served over HTTP and a
// fresh UI state database.
type Env struct {
	Config  Config
	Backend *fake.Backend
	URL     string
	DBPath  string
}

// NewEnv starts the fake backend, it's stopped when the test ends.
func NewEnv(t *testing.T, config Config, cfg fake.BackendConfig) Env {
	t.Helper()

	fb, err := fake.NewBackend(cfg)
	if err != nil {
		t.Fatalf("could not create fake backend: %s", err)
	}
	srv := httptest.NewServer(fb.Handler())
	t.Cleanup(srv.Close)

	return Env{
		Config:  config,
		Backend: fb,
		URL:     srv.URL,
		DBPath:  filepath.Join(t.TempDir(), "test-stagewatch.db"),
	}
}

// Run executes a stagewatch command against the environment backend and database.
func (e Env) Run(ctx context.Context, args ...string) (stdout, stderr []byte, err error) {
	all := append([]string{"--no-color", "--backend-url", e.URL, "--db-path", e.DBPath}, args...)
	return testutils.RunStagewatchArgs(ctx, nil, e.Config.Binary, all, true)
}
