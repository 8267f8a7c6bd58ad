package model

import (
	"fmt"
	"time"
)

// ErrorRecord is a task error reported by the backend.
type ErrorRecord struct {
	Error  string
	Node   string
	TaskID string
	// Timestamp is in unix seconds.
	Timestamp float64
}

// Time returns the timestamp as a time.
func (e ErrorRecord) Time() time.Time {
	sec := int64(e.Timestamp)
	nsec := int64((e.Timestamp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

// TaskInjection is a request to inject tasks into a backend node.
type TaskInjection struct {
	Node      string
	TaskDatas map[string]any
	Timestamp time.Time
}

// Validate validates the injection.
func (t TaskInjection) Validate() error {
	if t.Node == "" {
		return fmt.Errorf("node is required: %w", ErrNotValid)
	}
	if len(t.TaskDatas) == 0 {
		return fmt.Errorf("task data is required: %w", ErrNotValid)
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required: %w", ErrNotValid)
	}
	return nil
}
