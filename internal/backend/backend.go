// Package backend has the clients of the task execution backend the dashboard
// observes.
package backend

import (
	"context"
	"time"

	"github.com/slok/stagewatch/internal/model"
)

// Endpoint names, used on logs and metrics.
const (
	EndpointStatus    = "status"
	EndpointStructure = "structure"
	EndpointErrors    = "errors"
	EndpointInterval  = "interval"
	EndpointShutdown  = "shutdown"
	EndpointInject    = "inject"
)

// Client is the task execution backend client.
type Client interface {
	// GetStatus returns the status of every node. Nodes keep the backend order.
	GetStatus(ctx context.Context) (*model.StatusSnapshot, error)
	// GetStructure returns the stage tree, nil when the backend has no structure.
	GetStructure(ctx context.Context) (*model.StageNode, error)
	// GetErrors returns the whole error log, unsorted.
	GetErrors(ctx context.Context) ([]model.ErrorRecord, error)
	// PushInterval sets the backend reporting interval.
	PushInterval(ctx context.Context, interval time.Duration) error
	// Shutdown stops the backend and returns its response text.
	Shutdown(ctx context.Context) (string, error)
	// InjectTask sends tasks to a node.
	InjectTask(ctx context.Context, inj model.TaskInjection) error
}
