// Package fake has an in-memory task execution backend. It implements
// backend.Client and can also be served over HTTP with the routes of the real
// backend.
package fake

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/slok/stagewatch/internal/backend"
	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
)

// BackendConfig is the configuration for the fake backend.
type BackendConfig struct {
	Structure *model.StageNode
	Status    *model.StatusSnapshot
	Errors    []model.ErrorRecord
	Logger    log.Logger
}

func (c *BackendConfig) defaults() error {
	if c.Status == nil {
		c.Status = model.NewStatusSnapshot()
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.Fake"})
	return nil
}

// Backend is a fake backend.
type Backend struct {
	mu         sync.Mutex
	structure  *model.StageNode
	status     *model.StatusSnapshot
	errors     []model.ErrorRecord
	failures   map[string]error
	interval   time.Duration
	intervals  []time.Duration
	injections []model.TaskInjection
	shutdowns  int
	calls      map[string]int
	logger     log.Logger
}

// NewBackend returns a new fake backend.
func NewBackend(cfg BackendConfig) (*Backend, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Backend{
		structure: cfg.Structure,
		status:    cloneStatus(cfg.Status),
		errors:    slices.Clone(cfg.Errors),
		failures:  map[string]error{},
		interval:  model.DefaultRefreshInterval,
		calls:     map[string]int{},
		logger:    cfg.Logger,
	}, nil
}

var _ backend.Client = &Backend{}

// SetStructure replaces the stage tree, nil means no structure.
func (b *Backend) SetStructure(root *model.StageNode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.structure = root
}

// SetStatus replaces the node status.
func (b *Backend) SetStatus(s *model.StatusSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = cloneStatus(s)
}

// SetErrors replaces the error log.
func (b *Backend) SetErrors(records []model.ErrorRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errors = slices.Clone(records)
}

// SetFailure makes an endpoint fail with err, a nil err clears the failure.
func (b *Backend) SetFailure(endpoint string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, endpoint)
		return
	}
	b.failures[endpoint] = err
}

// Calls returns the number of calls received by an endpoint.
func (b *Backend) Calls(endpoint string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[endpoint]
}

// Interval returns the current backend reporting interval.
func (b *Backend) Interval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.interval
}

// Intervals returns every pushed interval.
func (b *Backend) Intervals() []time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.intervals)
}

// Injections returns every received task injection.
func (b *Backend) Injections() []model.TaskInjection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.injections)
}

// Shutdowns returns the number of shutdown requests.
func (b *Backend) Shutdowns() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shutdowns
}

// call registers the call and returns the programmed failure. Must be called
// with the lock held.
func (b *Backend) call(endpoint string) error {
	b.calls[endpoint]++
	if err := b.failures[endpoint]; err != nil {
		b.logger.Debugf("Failing %s call: %s", endpoint, err)
		return err
	}
	return nil
}

func (b *Backend) GetStatus(ctx context.Context) (*model.StatusSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(backend.EndpointStatus); err != nil {
		return nil, err
	}
	return cloneStatus(b.status), nil
}

func (b *Backend) GetStructure(ctx context.Context) (*model.StageNode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(backend.EndpointStructure); err != nil {
		return nil, err
	}
	return b.structure, nil
}

func (b *Backend) GetErrors(ctx context.Context) ([]model.ErrorRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(backend.EndpointErrors); err != nil {
		return nil, err
	}
	return slices.Clone(b.errors), nil
}

func (b *Backend) PushInterval(ctx context.Context, interval time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(backend.EndpointInterval); err != nil {
		return err
	}

	// Same limits as the real backend.
	b.interval = min(max(interval, time.Second), 60*time.Second)
	b.intervals = append(b.intervals, interval)
	return nil
}

func (b *Backend) Shutdown(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(backend.EndpointShutdown); err != nil {
		return "", err
	}

	b.shutdowns++
	return "Server shutting down...", nil
}

func (b *Backend) InjectTask(ctx context.Context, inj model.TaskInjection) error {
	if err := inj.Validate(); err != nil {
		return fmt.Errorf("invalid injection: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(backend.EndpointInject); err != nil {
		return err
	}
	if _, ok := b.status.Get(inj.Node); !ok && b.status.Len() > 0 {
		return fmt.Errorf("node %q: %w", inj.Node, model.ErrNotFound)
	}

	b.injections = append(b.injections, inj)
	return nil
}

func cloneStatus(s *model.StatusSnapshot) *model.StatusSnapshot {
	c := model.NewStatusSnapshot()
	if s == nil {
		return c
	}
	for _, name := range s.Names {
		st, _ := s.Get(name)
		st.History = slices.Clone(st.History)
		c.Set(name, st)
	}
	return c
}
