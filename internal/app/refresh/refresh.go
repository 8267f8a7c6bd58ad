package refresh

import (
	"context"
	"crypto/rand"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/stagewatch/internal/backend"
	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/metrics"
	"github.com/slok/stagewatch/internal/model"
)

const pushIntervalTimeout = 5 * time.Second

// State is the last known backend models after a settled tick.
type State struct {
	TickID    string
	Status    *model.StatusSnapshot
	Structure *model.StageNode
	Errors    []model.ErrorRecord
	Interval  time.Duration
	UpdatedAt time.Time
	// FailedEndpoints are the endpoints whose fetch failed on the tick, their
	// models keep the previous values.
	FailedEndpoints []string
}

// Renderer receives the settled state after every tick.
type Renderer interface {
	Render(ctx context.Context, s State) error
}

// RendererFunc is a helper to use functions as Renderer.
type RendererFunc func(ctx context.Context, s State) error

func (r RendererFunc) Render(ctx context.Context, s State) error { return r(ctx, s) }

var noopRenderer = RendererFunc(func(context.Context, State) error { return nil })

// ServiceConfig is the configuration for the refresh service.
type ServiceConfig struct {
	Backend  backend.Client
	Renderer Renderer
	Interval time.Duration
	Logger   log.Logger
	TimeNow  func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.Backend == nil {
		return fmt.Errorf("backend client is required")
	}
	if c.Renderer == nil {
		c.Renderer = noopRenderer
	}
	if c.Interval == 0 {
		c.Interval = model.DefaultRefreshInterval
	}
	if err := model.ValidateRefreshInterval(c.Interval); err != nil {
		return err
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Refresh"})
	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}
	return nil
}

// Service coordinates the backend polling. Every tick fetches the status, the
// structure and the errors concurrently, a failed fetch keeps the last known
// model and doesn't affect the others.
type Service struct {
	backend  backend.Client
	renderer Renderer
	logger   log.Logger
	timeNow  func() time.Time

	mu       sync.RWMutex
	state    State
	interval time.Duration
	resetC   chan struct{}
}

// NewService returns a new refresh service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	metrics.RefreshIntervalSeconds.Set(cfg.Interval.Seconds())

	return &Service{
		backend:  cfg.Backend,
		renderer: cfg.Renderer,
		logger:   cfg.Logger,
		timeNow:  cfg.TimeNow,
		state: State{
			Status:   model.NewStatusSnapshot(),
			Errors:   []model.ErrorRecord{},
			Interval: cfg.Interval,
		},
		interval: cfg.Interval,
		resetC:   make(chan struct{}, 1),
	}, nil
}

// State returns the last known state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Interval = s.interval
	st.FailedEndpoints = slices.Clone(st.FailedEndpoints)
	return st
}

// Interval returns the current refresh interval.
func (s *Service) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval
}

// SetInterval changes the refresh interval, restarts the running loop timer and
// notifies the backend. Backend notification failures are only logged.
func (s *Service) SetInterval(ctx context.Context, interval time.Duration) error {
	if err := model.ValidateRefreshInterval(interval); err != nil {
		return err
	}

	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()
	metrics.RefreshIntervalSeconds.Set(interval.Seconds())

	select {
	case s.resetC <- struct{}{}:
	default:
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushIntervalTimeout)
		defer cancel()

		if err := s.backend.PushInterval(ctx, interval); err != nil {
			metrics.FetchFailuresTotal.WithLabelValues(backend.EndpointInterval).Inc()
			s.logger.Warningf("Could not push refresh interval to backend: %s", err)
		}
	}()

	s.logger.Infof("Refresh interval set to %s", interval)
	return nil
}

// Run performs an immediate tick and then ticks every interval until the context
// is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.Tick(ctx)

	ticker := time.NewTicker(s.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.resetC:
			ticker.Reset(s.Interval())
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick fetches all the backend models, waits for them to settle and renders the
// resulting state once.
func (s *Service) Tick(ctx context.Context) State {
	start := s.timeNow()
	tickID := ulid.MustNew(ulid.Timestamp(start), rand.Reader).String()
	logger := s.logger.WithValues(log.Kv{"tick": tickID})
	ctx = logger.SetValuesOnCtx(ctx, log.Kv{"tick": tickID})

	// Fetch results stay local until every fetch settled, readers never see a
	// partial batch.
	var (
		wg                               sync.WaitGroup
		status                           *model.StatusSnapshot
		root                             *model.StageNode
		records                          []model.ErrorRecord
		statusErr, structureErr, errsErr error
	)
	wg.Go(func() { status, statusErr = s.backend.GetStatus(ctx) })
	wg.Go(func() { root, structureErr = s.backend.GetStructure(ctx) })
	wg.Go(func() { records, errsErr = s.backend.GetErrors(ctx) })
	wg.Wait()

	var failed []string
	for _, f := range []struct {
		endpoint string
		err      error
	}{
		{backend.EndpointErrors, errsErr},
		{backend.EndpointStatus, statusErr},
		{backend.EndpointStructure, structureErr},
	} {
		if f.err == nil {
			continue
		}
		metrics.FetchFailuresTotal.WithLabelValues(f.endpoint).Inc()
		logger.Warningf("Could not fetch backend %s, keeping last known value: %s", f.endpoint, f.err)
		failed = append(failed, f.endpoint)
	}
	slices.Sort(failed)

	if statusErr == nil && status == nil {
		status = model.NewStatusSnapshot()
	}
	if errsErr == nil && records == nil {
		records = []model.ErrorRecord{}
	}
	if structureErr == nil && root == nil {
		logger.Debugf("No structure available, keeping last known tree")
	}

	s.mu.Lock()
	if statusErr == nil {
		s.state.Status = status
	}
	if structureErr == nil && root != nil {
		s.state.Structure = root
	}
	if errsErr == nil {
		s.state.Errors = records
	}
	s.state.TickID = tickID
	s.state.UpdatedAt = s.timeNow()
	s.state.FailedEndpoints = failed
	s.mu.Unlock()

	if statusErr == nil {
		recordNodeStates(status)
	}

	metrics.RefreshTicksTotal.Inc()
	metrics.TickDuration.Observe(s.timeNow().Sub(start).Seconds())

	state := s.State()
	if err := s.renderer.Render(ctx, state); err != nil {
		logger.Errorf("Could not render dashboard: %s", err)
	}
	logger.Debugf("Refresh tick settled with %d failed endpoints", len(failed))

	return state
}

func recordNodeStates(st *model.StatusSnapshot) {
	counts := map[model.NodeState]int{}
	for _, name := range st.Names {
		ns, _ := st.Get(name)
		counts[ns.State]++
	}
	for _, state := range []model.NodeState{model.NodeStateNotStarted, model.NodeStateRunning, model.NodeStateStopped} {
		metrics.StatusNodes.WithLabelValues(state.String()).Set(float64(counts[state]))
	}
}
