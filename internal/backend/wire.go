package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/slok/stagewatch/internal/model"
)

// Wire types, private, for the backend JSON payloads.

// flexInt accepts JSON integers, floats and numeric strings.
type flexInt struct {
	Value int64
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", s, err)
	}
	f.Value = int64(math.Trunc(v))
	f.Set = true
	return nil
}

func (f flexInt) ptr() *int64 {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

// flexString keeps strings as is and numbers with their JSON text.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(data)
	}
	return nil
}

type historyJSON struct {
	Timestamp      float64 `json:"timestamp"`
	TasksProcessed flexInt `json:"tasks_processed"`
}

type nodeStatusJSON struct {
	Active        *bool      `json:"active"`
	Status        *flexInt   `json:"status"`
	StageMode     flexString `json:"stage_mode"`
	ExecutionMode flexString `json:"execution_mode"`
	FuncName      flexString `json:"func_name"`

	TasksProcessed  flexInt `json:"tasks_processed"`
	TasksPending    flexInt `json:"tasks_pending"`
	TasksFailed     flexInt `json:"tasks_failed"`
	TasksError      flexInt `json:"tasks_error"`
	TasksDuplicated flexInt `json:"tasks_duplicated"`

	AddTasksProcessed flexInt `json:"add_tasks_processed"`
	AddTasksPending   flexInt `json:"add_tasks_pending"`
	AddTasksFailed    flexInt `json:"add_tasks_failed"`
	AddTasksError     flexInt `json:"add_tasks_error"`

	StartTime     flexString `json:"start_time"`
	ElapsedTime   flexString `json:"elapsed_time"`
	RemainingTime flexString `json:"remaining_time"`
	TaskAvgTime   flexString `json:"task_avg_time"`

	History []historyJSON `json:"history"`
}

func (n nodeStatusJSON) toModel() model.NodeStatus {
	st := model.NodeStatus{
		Mode:            string(n.StageMode),
		FuncName:        string(n.FuncName),
		TasksProcessed:  n.TasksProcessed.Value,
		TasksPending:    n.TasksPending.Value,
		TasksFailed:     n.TasksFailed.Value,
		TasksDuplicated: n.TasksDuplicated.Value,
		StartTime:       string(n.StartTime),
		ElapsedTime:     string(n.ElapsedTime),
		RemainingTime:   string(n.RemainingTime),
		TaskAvgTime:     string(n.TaskAvgTime),

		AddTasksProcessed: n.AddTasksProcessed.ptr(),
		AddTasksPending:   n.AddTasksPending.ptr(),
		AddTasksFailed:    n.AddTasksFailed.ptr(),
	}

	// Older backend revisions.
	if st.Mode == "" {
		st.Mode = string(n.ExecutionMode)
	}
	if !n.TasksFailed.Set {
		st.TasksFailed = n.TasksError.Value
	}
	if !n.AddTasksFailed.Set {
		st.AddTasksFailed = n.AddTasksError.ptr()
	}

	switch {
	case n.Status != nil && n.Status.Set:
		switch n.Status.Value {
		case 1:
			st.State = model.NodeStateRunning
		case 2:
			st.State = model.NodeStateStopped
		default:
			st.State = model.NodeStateNotStarted
		}
	case n.Active != nil && *n.Active:
		st.State = model.NodeStateRunning
	default:
		st.State = model.NodeStateStopped
	}

	for _, h := range n.History {
		st.History = append(st.History, model.HistorySample{
			Timestamp:      h.Timestamp,
			TasksProcessed: h.TasksProcessed.Value,
		})
	}

	return st
}

// decodeStatus decodes the node name to status JSON object keeping the key order.
func decodeStatus(data []byte) (*model.StatusSnapshot, error) {
	snap := model.NewStatusSnapshot()
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("could not read status: %w", err)
	}
	if tok == nil {
		return snap, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("status must be a JSON object: %w", model.ErrNotValid)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("could not read status node name: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid status node name %v: %w", tok, model.ErrNotValid)
		}

		var ns nodeStatusJSON
		if err := dec.Decode(&ns); err != nil {
			return nil, fmt.Errorf("could not decode status of node %q: %w", name, err)
		}
		snap.Set(name, ns.toModel())
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("could not read status: %w", err)
	}

	return snap, nil
}

type errorRecordJSON struct {
	Error     flexString `json:"error"`
	Node      flexString `json:"node"`
	TaskID    flexString `json:"task_id"`
	Timestamp float64    `json:"timestamp"`
}

func (e errorRecordJSON) toModel() model.ErrorRecord {
	return model.ErrorRecord{
		Error:     string(e.Error),
		Node:      string(e.Node),
		TaskID:    string(e.TaskID),
		Timestamp: e.Timestamp,
	}
}

func decodeErrors(data []byte) ([]model.ErrorRecord, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.ErrorRecord{}, nil
	}

	var records []errorRecordJSON
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("could not decode errors: %w", err)
	}

	res := make([]model.ErrorRecord, 0, len(records))
	for _, r := range records {
		res = append(res, r.toModel())
	}
	return res, nil
}

type intervalJSON struct {
	Interval int64 `json:"interval"`
}

type taskInjectionJSON struct {
	Node      string         `json:"node"`
	TaskDatas map[string]any `json:"task_datas"`
	Timestamp string         `json:"timestamp"`
}
