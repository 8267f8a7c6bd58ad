package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/structure"
)

const defaultRequestTimeout = 10 * time.Second

// HTTPClientConfig is the configuration of the HTTP backend client.
type HTTPClientConfig struct {
	// BaseURL is the backend URL (e.g. "http://127.0.0.1:5000").
	BaseURL string
	// Endpoints is the endpoint mapping, empty paths use the defaults.
	Endpoints model.Endpoints
	// HTTPClient is the HTTP client, by default an otelhttp instrumented one.
	HTTPClient *http.Client
	// Timeout is the per request timeout of the default HTTP client.
	Timeout time.Duration
	Logger  log.Logger
}

func (c *HTTPClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL scheme must be http or https, got %q", u.Scheme)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	defs := model.DefaultEndpoints()
	for _, e := range []struct{ dst, def *model.Endpoint }{
		{&c.Endpoints.Status, &defs.Status},
		{&c.Endpoints.Structure, &defs.Structure},
		{&c.Endpoints.Errors, &defs.Errors},
		{&c.Endpoints.Interval, &defs.Interval},
		{&c.Endpoints.Shutdown, &defs.Shutdown},
		{&c.Endpoints.Inject, &defs.Inject},
	} {
		if e.dst.Path == "" {
			e.dst.Path = e.def.Path
		}
	}

	if c.Timeout == 0 {
		c.Timeout = defaultRequestTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{
			Timeout:   c.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.HTTPClient"})
	return nil
}

// HTTPClient is the HTTP implementation of Client.
type HTTPClient struct {
	baseURL    string
	endpoints  model.Endpoints
	selectors  map[string]*selector
	httpClient *http.Client
	logger     log.Logger
}

// NewHTTPClient returns a new HTTP backend client.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	selectors := map[string]*selector{}
	for name, e := range map[string]model.Endpoint{
		EndpointStatus:    cfg.Endpoints.Status,
		EndpointStructure: cfg.Endpoints.Structure,
		EndpointErrors:    cfg.Endpoints.Errors,
	} {
		s, err := newSelector(e.Selector)
		if err != nil {
			return nil, fmt.Errorf("invalid %s selector: %w", name, err)
		}
		selectors[name] = s
	}

	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		endpoints:  cfg.Endpoints,
		selectors:  selectors,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

var _ Client = &HTTPClient{}

func (c *HTTPClient) GetStatus(ctx context.Context) (*model.StatusSnapshot, error) {
	data, err := c.get(ctx, EndpointStatus, c.endpoints.Status.Path)
	if err != nil {
		return nil, err
	}

	snap, err := decodeStatus(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse status: %w", err)
	}

	return snap, nil
}

func (c *HTTPClient) GetStructure(ctx context.Context) (*model.StageNode, error) {
	data, err := c.get(ctx, EndpointStructure, c.endpoints.Structure.Path)
	if err != nil {
		return nil, err
	}

	root, err := structure.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse structure: %w", err)
	}

	return root, nil
}

func (c *HTTPClient) GetErrors(ctx context.Context) ([]model.ErrorRecord, error) {
	data, err := c.get(ctx, EndpointErrors, c.endpoints.Errors.Path)
	if err != nil {
		return nil, err
	}

	records, err := decodeErrors(data)
	if err != nil {
		return nil, fmt.Errorf("could not parse errors: %w", err)
	}

	return records, nil
}

func (c *HTTPClient) PushInterval(ctx context.Context, interval time.Duration) error {
	body, err := json.Marshal(intervalJSON{Interval: interval.Milliseconds()})
	if err != nil {
		return fmt.Errorf("could not encode interval: %w", err)
	}

	_, err = c.do(ctx, http.MethodPost, c.endpoints.Interval.Path, body)
	if err != nil {
		return fmt.Errorf("could not push interval: %w", err)
	}

	c.logger.Debugf("Backend interval set to %s", interval)
	return nil
}

func (c *HTTPClient) Shutdown(ctx context.Context) (string, error) {
	data, err := c.do(ctx, http.MethodPost, c.endpoints.Shutdown.Path, nil)
	if err != nil {
		return "", fmt.Errorf("could not shutdown backend: %w", err)
	}

	return string(data), nil
}

func (c *HTTPClient) InjectTask(ctx context.Context, inj model.TaskInjection) error {
	if err := inj.Validate(); err != nil {
		return fmt.Errorf("invalid injection: %w", err)
	}

	body, err := json.Marshal(taskInjectionJSON{
		Node:      inj.Node,
		TaskDatas: inj.TaskDatas,
		Timestamp: inj.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("could not encode injection: %w", err)
	}

	_, err = c.do(ctx, http.MethodPost, c.endpoints.Inject.Path, body)
	if err != nil {
		return fmt.Errorf("could not inject tasks: %w", err)
	}

	return nil
}

func (c *HTTPClient) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("could not get %s: %w", endpoint, err)
	}

	data, err = c.selectors[endpoint].apply(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("could not select %s payload: %w", endpoint, err)
	}

	return data, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	target := c.baseURL + path

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("HTTP %d from %s: %s: %w", resp.StatusCode, target, strings.TrimSpace(string(data)), model.ErrNotFound)
	case resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("HTTP %d from %s: %s: %w", resp.StatusCode, target, strings.TrimSpace(string(data)), model.ErrNotValid)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, target, strings.TrimSpace(string(data)))
	}

	return data, nil
}
