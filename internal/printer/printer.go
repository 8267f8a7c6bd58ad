package printer

import "github.com/slok/stagewatch/internal/view"

// Printer knows how to print dashboard information in different formats.
type Printer interface {
	PrintDashboard(d view.Dashboard) error
	PrintStatus(cards []view.Card, summary view.Summary) error
	PrintTree(root *view.TreeNode) error
	PrintErrors(rows []view.ErrorRow) error
	PrintUIState(s view.UIState) error
	PrintMessage(msg string) error
}
