package shutdown

import (
	"context"
	"fmt"

	"github.com/slok/stagewatch/internal/backend"
	"github.com/slok/stagewatch/internal/log"
	"github.com/slok/stagewatch/internal/model"
)

// ConfirmationPrompt is the question asked before shutting down the backend.
const ConfirmationPrompt = "Shutdown the backend? All the running tasks will be stopped"

// Confirmer asks the user for an explicit confirmation.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmerFunc is a helper to use functions as Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt string) (bool, error)

func (c ConfirmerFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return c(ctx, prompt)
}

// ServiceConfig is the configuration for the shutdown service.
type ServiceConfig struct {
	Backend backend.Client
	// Confirmer is optional, without it only already confirmed requests are accepted.
	Confirmer Confirmer
	Logger    log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Backend == nil {
		return fmt.Errorf("backend client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service shuts down the backend after an explicit confirmation.
type Service struct {
	backend   backend.Client
	confirmer Confirmer
	logger    log.Logger
}

// NewService creates a new shutdown service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		backend:   cfg.Backend,
		confirmer: cfg.Confirmer,
		logger:    cfg.Logger,
	}, nil
}

// Request represents the shutdown request parameters.
type Request struct {
	// Confirmed skips the confirmer, the user already confirmed.
	Confirmed bool
}

// Run shuts down the backend and returns its response message as is.
func (s *Service) Run(ctx context.Context, req Request) (string, error) {
	if !req.Confirmed {
		if s.confirmer == nil {
			return "", fmt.Errorf("shutdown requires confirmation: %w", model.ErrNotConfirmed)
		}

		ok, err := s.confirmer.Confirm(ctx, ConfirmationPrompt)
		if err != nil {
			return "", fmt.Errorf("could not confirm shutdown: %w", err)
		}
		if !ok {
			return "", fmt.Errorf("shutdown cancelled by the user: %w", model.ErrNotConfirmed)
		}
	}

	s.logger.Infof("Shutting down backend")
	msg, err := s.backend.Shutdown(ctx)
	if err != nil {
		return "", fmt.Errorf("could not shutdown backend: %w", err)
	}

	return msg, nil
}
