package view_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/view"
)

type set map[string]bool

func (s set) IsCollapsed(id string) bool { return s[id] }
func (s set) IsHidden(name string) bool { return s[name] }

func ptr[T any](v T) *T { return &v }

func statusFixture() *model.StatusSnapshot {
	s := model.NewStatusSnapshot()
	s.Set("A", model.NodeStatus{
		State: model.NodeStateRunning, Mode: "serial", FuncName: "fa",
		TasksProcessed: 7, TasksFailed: 1, TasksPending: 2,
		AddTasksProcessed: ptr[int64](3), AddTasksFailed: ptr[int64](0), AddTasksPending: ptr[int64](-2),
		History: []model.HistorySample{{Timestamp: 1, TasksProcessed: 4}, {Timestamp: 2, TasksProcessed: 7}},
	})
	s.Set("B", model.NodeStatus{State: model.NodeStateStopped, TasksProcessed: 5})
	s.Set("C", model.NodeStatus{
		State:   model.NodeStateRunning,
		History: []model.HistorySample{{Timestamp: 1, TasksProcessed: 0}},
	})
	return s
}

func TestBuildTree(t *testing.T) {
	root := &model.StageNode{
		Name: "root", Mode: "serial", FuncName: "start",
		Next: []model.StageNode{
			{Name: "a", Mode: "process", FuncName: "fa", Next: []model.StageNode{{Name: "c"}}},
			{Name: "b", Visited: true},
		},
	}

	tests := map[string]struct {
		root      *model.StageNode
		collapsed set
		expTree   *view.TreeNode
	}{
		"No structure should return no tree.": {
			root:    nil,
			expTree: nil,
		},

		"A tree without collapsed nodes should be expanded.": {
			root:      root,
			collapsed: set{},
			expTree: &view.TreeNode{
				ID: "/root", Name: "root", Mode: "serial", FuncName: "start",
				Glyph: view.GlyphExpanded, HasChildren: true,
				Children: []view.TreeNode{
					{
						ID: "/root/a", Name: "a", Mode: "process", FuncName: "fa",
						Glyph: view.GlyphExpanded, HasChildren: true,
						Children: []view.TreeNode{{ID: "/root/a/c", Name: "c"}},
					},
					{ID: "/root/b", Name: "b", Visited: true},
				},
			},
		},

		"Collapsed nodes should keep their descendants and own flags.": {
			root:      root,
			collapsed: set{"/root": true, "/root/a": true, "/root/b": true},
			expTree: &view.TreeNode{
				ID: "/root", Name: "root", Mode: "serial", FuncName: "start",
				Glyph: view.GlyphCollapsed, HasChildren: true, Collapsed: true,
				Children: []view.TreeNode{
					{
						ID: "/root/a", Name: "a", Mode: "process", FuncName: "fa",
						Glyph: view.GlyphCollapsed, HasChildren: true, Collapsed: true,
						Children: []view.TreeNode{{ID: "/root/a/c", Name: "c"}},
					},
					// Leaves have no collapse affordance.
					{ID: "/root/b", Name: "b", Visited: true},
				},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := view.BuildTree(test.root, test.collapsed)
			assert.Equal(t, test.expTree, got)
		})
	}
}

func TestVisibleLines(t *testing.T) {
	root := &model.StageNode{
		Name: "root",
		Next: []model.StageNode{
			{Name: "a", Next: []model.StageNode{{Name: "c"}}},
			{Name: "b", Next: []model.StageNode{{Name: "d"}}},
		},
	}

	getIDs := func(lines []view.VisibleTreeLine) []string {
		ids := []string{}
		for _, l := range lines {
			ids = append(ids, l.Node.ID)
		}
		return ids
	}

	assert := assert.New(t)

	lines := view.VisibleLines(view.BuildTree(root, set{}))
	assert.Equal([]string{"/root", "/root/a", "/root/a/c", "/root/b", "/root/b/d"}, getIDs(lines))
	assert.Equal(2, lines[2].Depth)

	lines = view.VisibleLines(view.BuildTree(root, set{"/root/a": true}))
	assert.Equal([]string{"/root", "/root/a", "/root/b", "/root/b/d"}, getIDs(lines))

	// Expanding the ancestor restores the descendant own state.
	collapsed := set{"/root": true, "/root/a": true}
	assert.Equal([]string{"/root"}, getIDs(view.VisibleLines(view.BuildTree(root, collapsed))))
	collapsed["/root"] = false
	assert.Equal([]string{"/root", "/root/a", "/root/b", "/root/b/d"}, getIDs(view.VisibleLines(view.BuildTree(root, collapsed))))

	assert.Nil(view.VisibleLines(nil))
}

func TestOrderNames(t *testing.T) {
	tests := map[string]struct {
		order    []string
		dragging string
		expNames []string
	}{
		"Without order the snapshot order should be used.": {
			expNames: []string{"A", "B", "C"},
		},
		"User order should go first and the rest after.": {
			order:    []string{"B", "A"},
			expNames: []string{"B", "A", "C"},
		},
		"Unknown ordered names should be ignored.": {
			order:    []string{"Z", "C", "Y"},
			expNames: []string{"C", "A", "B"},
		},
		"The dragging node should be excluded.": {
			order:    []string{"B", "A"},
			dragging: "A",
			expNames: []string{"B", "C"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := view.OrderNames(statusFixture(), test.order, test.dragging)
			assert.Equal(t, test.expNames, got)
		})
	}
}

func TestOrderNamesEmptyStatus(t *testing.T) {
	assert.Equal(t, []string{}, view.OrderNames(nil, []string{"A"}, ""))
}

func TestProgress(t *testing.T) {
	tests := map[string]struct {
		processed, failed, pending int64
		exp                        int
	}{
		"Failed tasks count as done.":        {processed: 7, failed: 1, pending: 2, exp: 80},
		"No tasks should be 0.":              {exp: 0},
		"Progress should be floored.":        {processed: 2, pending: 1, exp: 66},
		"All done should be 100.":            {processed: 3, failed: 2, exp: 100},
		"Only pending tasks should be zero.": {pending: 9, exp: 0},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, view.Progress(test.processed, test.failed, test.pending))
		})
	}
}

func TestFormatDelta(t *testing.T) {
	tests := map[string]struct {
		delta    *int64
		expText  string
		expClass string
	}{
		"Absent delta should be omitted.": {delta: nil},
		"Zero delta should be omitted.":   {delta: ptr[int64](0)},
		"Positive delta should be up.":    {delta: ptr[int64](5), expText: "+5", expClass: view.DeltaUpClass},
		"Negative delta should be down.":  {delta: ptr[int64](-3), expText: "-3", expClass: view.DeltaDownClass},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			text, class := view.FormatDelta(test.delta)
			assert.Equal(t, test.expText, text)
			assert.Equal(t, test.expClass, class)
		})
	}
}

func TestBuildCards(t *testing.T) {
	cards := view.BuildCards(statusFixture(), []string{"B"}, "")

	assert := assert.New(t)
	assert.Len(cards, 3)
	assert.Equal("B", cards[0].Name)
	assert.Equal(view.Card{
		Name: "A", State: "running", Active: true, Mode: "serial", FuncName: "fa",
		Processed: view.Stat{Value: 7, Delta: "+3", DeltaClass: view.DeltaUpClass},
		Pending:   view.Stat{Value: 2, Delta: "-2", DeltaClass: view.DeltaDownClass},
		Failed:    view.Stat{Value: 1},
		Progress:  80,
	}, cards[1])
	assert.Equal("stopped", cards[0].State)
	assert.False(cards[0].Active)
}

func TestBuildSummary(t *testing.T) {
	assert.Equal(t, view.Summary{Processed: 12, Pending: 2, Failed: 1, ActiveNodes: 2, TotalNodes: 3}, view.BuildSummary(statusFixture()))
	assert.Equal(t, view.Summary{}, view.BuildSummary(nil))
}

func TestBuildErrorLog(t *testing.T) {
	records := []model.ErrorRecord{
		{Node: "x", Timestamp: 10, Error: "e1"},
		{Node: "x", Timestamp: 30, Error: "e2"},
		{Node: "y", Timestamp: 20, Error: "e3"},
	}

	getTimestamps := func(rows []view.ErrorRow) []float64 {
		res := []float64{}
		for _, r := range rows {
			res = append(res, r.Timestamp)
		}
		return res
	}

	tests := map[string]struct {
		records  []model.ErrorRecord
		node     string
		expTS    []float64
		expEmpty bool
	}{
		"No filter should show every error most recent first.": {
			records: records,
			expTS:   []float64{30, 20, 10},
		},
		"Node filter should only show that node errors.": {
			records: records,
			node:    "x",
			expTS:   []float64{30, 10},
		},
		"A filter without matches should show the placeholder.": {
			records:  records,
			node:     "z",
			expEmpty: true,
		},
		"No errors should show the placeholder.": {
			expEmpty: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			rows := view.BuildErrorLog(test.records, test.node)
			if test.expEmpty {
				assert.Equal([]view.ErrorRow{{Error: view.NoErrorsMessage, Placeholder: true}}, rows)
				return
			}
			assert.Equal(test.expTS, getTimestamps(rows))
		})
	}

	// The source snapshot is never reordered.
	assert.Equal(t, 10.0, records[0].Timestamp)
}

func TestBuildErrorLogTime(t *testing.T) {
	rows := view.BuildErrorLog([]model.ErrorRecord{{Node: "x", Timestamp: 1700000000.5}}, "")
	assert.Equal(t, time.Unix(1700000000, 500000000).UTC(), rows[0].Time)
}

func TestInjectionNodes(t *testing.T) {
	assert := assert.New(t)

	got := view.InjectionNodes(statusFixture(), "")
	assert.Equal([]view.InjectionNode{
		{Name: "A", Active: true, Mode: "serial"},
		{Name: "B", Mode: "unknown"},
		{Name: "C", Active: true, Mode: "unknown"},
	}, got)

	got = view.InjectionNodes(statusFixture(), " b ")
	assert.Equal([]view.InjectionNode{{Name: "B", Mode: "unknown"}}, got)
}

func TestBuildChartSeries(t *testing.T) {
	got := view.BuildChartSeries(statusFixture(), set{"C": true})
	assert.Equal(t, []view.ChartSeries{
		{Name: "A", Points: []view.SeriesPoint{{Timestamp: 1, Value: 4}, {Timestamp: 2, Value: 7}}},
		{Name: "C", Hidden: true, Points: []view.SeriesPoint{{Timestamp: 1, Value: 0}}},
	}, got)
}

func TestBuild(t *testing.T) {
	assert := assert.New(t)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d := view.Build(view.Input{
		Status:          statusFixture(),
		Structure:       &model.StageNode{Name: "root"},
		Errors:          []model.ErrorRecord{{Node: "B", Timestamp: 3}, {Node: "A", Timestamp: 4}},
		Order:           []string{"C"},
		Dragging:        "B",
		NodeFilter:      "B",
		Collapse:        set{},
		Hidden:          set{},
		Theme:           "dark",
		RefreshInterval: 10 * time.Second,
		UpdatedAt:       now,
	})

	assert.Equal("dark", d.Theme)
	assert.Equal(int64(10000), d.RefreshIntervalMS)
	assert.Equal(now, d.UpdatedAt)
	assert.Len(d.Cards, 2)
	assert.Equal("C", d.Cards[0].Name)
	assert.Equal(3, d.Summary.TotalNodes)
	assert.Len(d.Errors, 1)
	assert.Equal("B", d.Errors[0].Node)
	assert.Equal([]string{"A", "B", "C"}, d.NodeOptions)
	assert.Len(d.InjectionNodes, 3)
	assert.Len(d.Series, 2)
	assert.Equal("/root", d.Tree.ID)
}

func TestBuildEmpty(t *testing.T) {
	d := view.Build(view.Input{})

	assert := assert.New(t)
	assert.Empty(d.Cards)
	assert.Equal([]view.ErrorRow{{Error: view.NoErrorsMessage, Placeholder: true}}, d.Errors)
	assert.Nil(d.Tree)
}

func TestBuildFailedEndpoints(t *testing.T) {
	d := view.Build(view.Input{FailedEndpoints: []string{"structure"}})
	assert.Equal(t, []string{"structure"}, d.FailedEndpoints)
}
