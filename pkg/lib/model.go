package lib

import (
	"errors"
	"time"

	"github.com/slok/stagewatch/internal/app/dashboard"
	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/view"
)

var (
	// ErrNotFound is returned when the backend doesn't know the target (e.g. an unknown node).
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned on invalid input (e.g. an interval that is not allowed).
	ErrNotValid = errors.New("not valid")
	// ErrNotConfirmed is returned when an operation requiring confirmation was not confirmed.
	ErrNotConfirmed = errors.New("not confirmed")
)

// Theme is a dashboard theme.
type Theme string

const (
	// ThemeLight is the default theme.
	ThemeLight Theme = "light"
	// ThemeDark is the dark theme.
	ThemeDark Theme = "dark"
)

// DashboardOpts are the transient view options of a dashboard fetch.
type DashboardOpts struct {
	// NodeFilter only keeps the errors of this node, empty means all.
	NodeFilter string
	// Dragging is a card being relocated, excluded from the cards.
	Dragging string
}

// ShutdownOpts configures the backend shutdown.
type ShutdownOpts struct {
	// Confirm must be true, a shutdown stops every running task of the backend.
	Confirm bool
}

// Dashboard is a snapshot of the whole dashboard.
type Dashboard struct {
	Cards   []NodeCard
	Summary Summary
	// Errors are the filtered task errors, most recent first.
	Errors []TaskError
	// Series are the processed tasks history of the nodes with history.
	Series []Series
	// Tree is the stage tree, nil when the backend has no structure.
	Tree *StageTreeNode
	// RefreshInterval is the client refresh interval.
	RefreshInterval time.Duration
	UpdatedAt       time.Time
	// StaleEndpoints are the endpoints that failed on this fetch.
	StaleEndpoints []string
}

// NodeCard is the status of a backend node.
type NodeCard struct {
	Name     string
	State    string
	Active   bool
	Mode     string
	FuncName string

	Processed  int64
	Pending    int64
	Failed     int64
	Duplicated int64
	// Deltas are the signed changes of the latest reporting interval, empty
	// when there is no change.
	ProcessedDelta string
	PendingDelta   string
	FailedDelta    string
	// Progress is the completion percentage, failed tasks count as done.
	Progress int

	// Timing values are formatted by the backend.
	StartTime     string
	ElapsedTime   string
	RemainingTime string
	TaskAvgTime   string
}

// Summary is the totals of every node.
type Summary struct {
	Processed   int64
	Pending     int64
	Failed      int64
	ActiveNodes int
	TotalNodes  int
}

// TaskError is a task error reported by the backend.
type TaskError struct {
	Error  string
	Node   string
	TaskID string
	Time   time.Time
}

// Series is the processed tasks history of a node.
type Series struct {
	Node   string
	Hidden bool
	Points []SeriesPoint
}

// SeriesPoint is a processed tasks sample.
type SeriesPoint struct {
	Time      time.Time
	Processed int64
}

// StageTreeNode is a stage of the backend pipeline.
type StageTreeNode struct {
	// ID is the stage names path from the root, used to collapse the node.
	ID       string
	Name     string
	Mode     string
	FuncName string
	// Visited marks a stage already shown in another branch.
	Visited   bool
	Collapsed bool
	Children  []StageTreeNode
}

// UIState is the persisted dashboard UI state.
type UIState struct {
	Theme     Theme
	Collapsed []string
	Order     []string
	Hidden    []string
}

func toInternalEndpoints(e Endpoints) model.Endpoints {
	conv := func(e Endpoint) model.Endpoint { return model.Endpoint{Path: e.Path, Selector: e.Selector} }
	return model.Endpoints{
		Status:    conv(e.Status),
		Structure: conv(e.Structure),
		Errors:    conv(e.Errors),
		Interval:  conv(e.Interval),
		Shutdown:  conv(e.Shutdown),
		Inject:    conv(e.Inject),
	}
}

func toInternalDashboardRequest(opts *DashboardOpts) dashboard.Request {
	if opts == nil {
		return dashboard.Request{}
	}
	return dashboard.Request{NodeFilter: opts.NodeFilter, Dragging: opts.Dragging}
}

func fromInternalDashboard(d view.Dashboard) Dashboard {
	res := Dashboard{
		Cards:           make([]NodeCard, 0, len(d.Cards)),
		Errors:          []TaskError{},
		Series:          make([]Series, 0, len(d.Series)),
		RefreshInterval: time.Duration(d.RefreshIntervalMS) * time.Millisecond,
		UpdatedAt:       d.UpdatedAt,
		StaleEndpoints:  d.FailedEndpoints,
		Summary: Summary{
			Processed:   d.Summary.Processed,
			Pending:     d.Summary.Pending,
			Failed:      d.Summary.Failed,
			ActiveNodes: d.Summary.ActiveNodes,
			TotalNodes:  d.Summary.TotalNodes,
		},
	}

	for _, c := range d.Cards {
		res.Cards = append(res.Cards, NodeCard{
			Name:           c.Name,
			State:          c.State,
			Active:         c.Active,
			Mode:           c.Mode,
			FuncName:       c.FuncName,
			Processed:      c.Processed.Value,
			Pending:        c.Pending.Value,
			Failed:         c.Failed.Value,
			Duplicated:     c.Duplicated,
			ProcessedDelta: c.Processed.Delta,
			PendingDelta:   c.Pending.Delta,
			FailedDelta:    c.Failed.Delta,
			Progress:       c.Progress,
			StartTime:      c.StartTime,
			ElapsedTime:    c.ElapsedTime,
			RemainingTime:  c.RemainingTime,
			TaskAvgTime:    c.TaskAvgTime,
		})
	}

	// The SDK has no placeholder rows, an empty log is an empty list.
	for _, e := range d.Errors {
		if e.Placeholder {
			continue
		}
		res.Errors = append(res.Errors, TaskError{Error: e.Error, Node: e.Node, TaskID: e.TaskID, Time: e.Time})
	}

	for _, s := range d.Series {
		series := Series{Node: s.Name, Hidden: s.Hidden, Points: make([]SeriesPoint, 0, len(s.Points))}
		for _, p := range s.Points {
			t := model.ErrorRecord{Timestamp: p.Timestamp}.Time()
			series.Points = append(series.Points, SeriesPoint{Time: t, Processed: p.Value})
		}
		res.Series = append(res.Series, series)
	}

	if d.Tree != nil {
		t := fromInternalTreeNode(*d.Tree)
		res.Tree = &t
	}

	return res
}

func fromInternalTreeNode(n view.TreeNode) StageTreeNode {
	res := StageTreeNode{
		ID:        n.ID,
		Name:      n.Name,
		Mode:      n.Mode,
		FuncName:  n.FuncName,
		Visited:   n.Visited,
		Collapsed: n.Collapsed,
	}
	for _, c := range n.Children {
		res.Children = append(res.Children, fromInternalTreeNode(c))
	}
	return res
}

func fromInternalUIState(s view.UIState) UIState {
	return UIState{
		Theme:     Theme(s.Theme),
		Collapsed: s.Collapsed,
		Order:     s.Order,
		Hidden:    s.Hidden,
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	case errors.Is(err, model.ErrNotConfirmed):
		return joinErrors(err, ErrNotConfirmed)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
