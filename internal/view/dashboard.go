package view

import (
	"time"

	"github.com/slok/stagewatch/internal/model"
)

// Input is everything needed to build a dashboard.
type Input struct {
	Status    *model.StatusSnapshot
	Structure *model.StageNode
	Errors    []model.ErrorRecord

	Order    []string
	Dragging string
	// NodeFilter is the error log selected node, empty means all.
	NodeFilter      string
	InjectionSearch string
	Collapse        CollapseChecker
	Hidden          HiddenChecker

	Theme           string
	RefreshInterval time.Duration
	UpdatedAt       time.Time
	FailedEndpoints []string
}

// Dashboard is the whole dashboard view model.
type Dashboard struct {
	Theme             string          `json:"theme"`
	RefreshIntervalMS int64           `json:"refresh_interval_ms"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Cards             []Card          `json:"cards"`
	Summary           Summary         `json:"summary"`
	NodeFilter        string          `json:"node_filter"`
	Errors            []ErrorRow      `json:"errors"`
	NodeOptions       []string        `json:"node_options"`
	InjectionNodes    []InjectionNode `json:"injection_nodes"`
	Series            []ChartSeries   `json:"series"`
	Tree              *TreeNode       `json:"tree"`
	// FailedEndpoints are the endpoints showing stale data.
	FailedEndpoints []string `json:"failed_endpoints,omitempty"`
}

// Build builds the dashboard. Parts are computed in display order: cards,
// summary, error log, node filter options, injection nodes, chart series and
// finally the stage tree.
func Build(in Input) Dashboard {
	d := Dashboard{
		Theme:             in.Theme,
		RefreshIntervalMS: in.RefreshInterval.Milliseconds(),
		UpdatedAt:         in.UpdatedAt,
		NodeFilter:        in.NodeFilter,
		FailedEndpoints:   in.FailedEndpoints,
	}

	d.Cards = BuildCards(in.Status, in.Order, in.Dragging)
	d.Summary = BuildSummary(in.Status)
	d.Errors = BuildErrorLog(in.Errors, in.NodeFilter)
	d.NodeOptions = NodeFilterOptions(in.Status)
	d.InjectionNodes = InjectionNodes(in.Status, in.InjectionSearch)
	d.Series = BuildChartSeries(in.Status, in.Hidden)
	d.Tree = BuildTree(in.Structure, in.Collapse)

	return d
}
