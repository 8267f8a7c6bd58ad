package view

import (
	"cmp"
	"slices"
	"time"

	"github.com/slok/stagewatch/internal/model"
)

// NoErrorsMessage is the placeholder row message of an empty error log.
const NoErrorsMessage = "No errors"

// ErrorRow is an error log table row.
type ErrorRow struct {
	Error     string    `json:"error"`
	Node      string    `json:"node"`
	TaskID    string    `json:"task_id"`
	Timestamp float64   `json:"timestamp"`
	Time      time.Time `json:"time"`
	// Placeholder rows only carry the no errors message.
	Placeholder bool `json:"placeholder,omitempty"`
}

// BuildErrorLog filters the errors by node (empty means all) and sorts them
// with the most recent first. An empty result returns a single placeholder row.
func BuildErrorLog(records []model.ErrorRecord, node string) []ErrorRow {
	rows := make([]ErrorRow, 0, len(records))
	for _, r := range records {
		if node != "" && r.Node != node {
			continue
		}
		rows = append(rows, ErrorRow{
			Error:     r.Error,
			Node:      r.Node,
			TaskID:    r.TaskID,
			Timestamp: r.Timestamp,
			Time:      r.Time(),
		})
	}

	if len(rows) == 0 {
		return []ErrorRow{{Error: NoErrorsMessage, Placeholder: true}}
	}

	slices.SortStableFunc(rows, func(a, b ErrorRow) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})

	return rows
}
