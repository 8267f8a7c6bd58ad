package inject

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/slok/stagewatch/internal/backend"
	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
)

// ServiceConfig is the configuration for the inject service.
type ServiceConfig struct {
	Backend backend.Client
	Logger  log.Logger
	TimeNow func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.Backend == nil {
		return fmt.Errorf("backend client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	if c.TimeNow == nil {
		c.TimeNow = time.Now
	}

	return nil
}

// Service injects tasks into a backend node.
type Service struct {
	backend backend.Client
	logger  log.Logger
	timeNow func() time.Time
}

// NewService creates a new inject service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		backend: cfg.Backend,
		logger:  cfg.Logger,
		timeNow: cfg.TimeNow,
	}, nil
}

// Request represents the inject request parameters.
type Request struct {
	// Node is the target node name.
	Node string
	// Data is the JSON object with the task data.
	Data []byte
}

// Run validates and sends the injection to the backend.
func (s *Service) Run(ctx context.Context, req Request) (*model.TaskInjection, error) {
	node := strings.TrimSpace(req.Node)
	if node == "" {
		return nil, fmt.Errorf("a node must be selected: %w", model.ErrNotValid)
	}

	data := bytes.TrimSpace(req.Data)
	if len(data) == 0 {
		return nil, fmt.Errorf("task data is required: %w", model.ErrNotValid)
	}

	var taskDatas map[string]any
	if err := json.Unmarshal(data, &taskDatas); err != nil {
		return nil, fmt.Errorf("task data must be a JSON object: %s: %w", err, model.ErrNotValid)
	}

	inj := model.TaskInjection{
		Node:      node,
		TaskDatas: taskDatas,
		Timestamp: s.timeNow().UTC(),
	}
	if err := inj.Validate(); err != nil {
		return nil, err
	}

	if err := s.backend.InjectTask(ctx, inj); err != nil {
		return nil, fmt.Errorf("could not inject tasks: %w", err)
	}

	s.logger.WithValues(log.Kv{"node": node}).Infof("Injected %d task data entries", len(taskDatas))
	return &inj, nil
}
