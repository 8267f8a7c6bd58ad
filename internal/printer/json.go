package printer

import (
	"encoding/json"
	"io"

	"github.com/slok/stagewatch/internal/view"
)

// JSONPrinter prints dashboard information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// statusOutput represents the node cards output.
type statusOutput struct {
	Summary view.Summary `json:"summary"`
	Cards   []view.Card  `json:"cards"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintDashboard prints the whole dashboard in JSON format.
func (j *JSONPrinter) PrintDashboard(d view.Dashboard) error {
	return j.encode(d)
}

// PrintStatus prints the node cards and the summary in JSON format.
func (j *JSONPrinter) PrintStatus(cards []view.Card, summary view.Summary) error {
	if cards == nil {
		cards = []view.Card{}
	}
	return j.encode(statusOutput{Summary: summary, Cards: cards})
}

// PrintTree prints the stage tree in JSON format, null when there is no structure.
func (j *JSONPrinter) PrintTree(root *view.TreeNode) error {
	return j.encode(root)
}

// PrintErrors prints the error log in JSON format, placeholder rows are omitted.
func (j *JSONPrinter) PrintErrors(rows []view.ErrorRow) error {
	res := make([]view.ErrorRow, 0, len(rows))
	for _, r := range rows {
		if !r.Placeholder {
			res = append(res, r)
		}
	}
	return j.encode(res)
}

// PrintUIState prints the persisted UI state in JSON format.
func (j *JSONPrinter) PrintUIState(s view.UIState) error {
	return j.encode(s)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
