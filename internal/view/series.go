package view

import "github.com/slok/stagewatch/internal/model"

// HiddenChecker knows if a node chart series is hidden.
type HiddenChecker interface {
	IsHidden(name string) bool
}

// SeriesPoint is a processed tasks sample.
type SeriesPoint struct {
	Timestamp float64 `json:"timestamp"`
	Value     int64   `json:"value"`
}

// ChartSeries is the processed tasks history of a node.
type ChartSeries struct {
	Name   string        `json:"name"`
	Hidden bool          `json:"hidden"`
	Points []SeriesPoint `json:"points"`
}

// BuildChartSeries returns a series per node with history, in snapshot order.
func BuildChartSeries(status *model.StatusSnapshot, hidden HiddenChecker) []ChartSeries {
	res := []ChartSeries{}
	if status == nil {
		return res
	}

	for _, name := range status.Names {
		st, _ := status.Get(name)
		if len(st.History) == 0 {
			continue
		}

		points := make([]SeriesPoint, 0, len(st.History))
		for _, h := range st.History {
			points = append(points, SeriesPoint{Timestamp: h.Timestamp, Value: h.TasksProcessed})
		}
		res = append(res, ChartSeries{
			Name:   name,
			Hidden: hidden != nil && hidden.IsHidden(name),
			Points: points,
		})
	}

	return res
}
