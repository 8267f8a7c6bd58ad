package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/slok/stagewatch/internal/view"
)

const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// TablePrinter prints dashboard information in a table format.
type TablePrinter struct {
	writer  io.Writer
	color   bool
	timeNow func() time.Time
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w, timeNow: time.Now}
}

// NewColorTablePrinter creates a new table printer that colors deltas.
func NewColorTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w, color: true, timeNow: time.Now}
}

// PrintDashboard prints the whole dashboard.
func (t *TablePrinter) PrintDashboard(d view.Dashboard) error {
	updated := "never"
	if !d.UpdatedAt.IsZero() {
		updated = fmt.Sprintf("%s (%s)", FormatTimestamp(d.UpdatedAt), TimeAgo(t.timeNow(), d.UpdatedAt))
	}
	fmt.Fprintf(t.writer, "Updated:    %s\n", updated)
	fmt.Fprintf(t.writer, "Interval:   %s\n", FormatInterval(d.RefreshIntervalMS))
	if len(d.FailedEndpoints) > 0 {
		fmt.Fprintf(t.writer, "Stale:      %s\n", strings.Join(d.FailedEndpoints, ", "))
	}
	fmt.Fprintln(t.writer)

	if err := t.PrintStatus(d.Cards, d.Summary); err != nil {
		return err
	}

	fmt.Fprintln(t.writer)
	if d.NodeFilter != "" {
		fmt.Fprintf(t.writer, "Errors (node: %s):\n", d.NodeFilter)
	} else {
		fmt.Fprintln(t.writer, "Errors:")
	}
	if err := t.PrintErrors(d.Errors); err != nil {
		return err
	}

	var visible int
	for _, s := range d.Series {
		if !s.Hidden {
			visible++
		}
	}
	if len(d.Series) > 0 {
		fmt.Fprintf(t.writer, "\nSeries:     %d visible, %d hidden\n", visible, len(d.Series)-visible)
	}

	fmt.Fprintln(t.writer)
	fmt.Fprintln(t.writer, "Stages:")
	return t.PrintTree(d.Tree)
}

// PrintStatus prints the node cards and the summary totals.
func (t *TablePrinter) PrintStatus(cards []view.Card, summary view.Summary) error {
	fmt.Fprintf(t.writer, "Processed:  %d\n", summary.Processed)
	fmt.Fprintf(t.writer, "Pending:    %d\n", summary.Pending)
	fmt.Fprintf(t.writer, "Failed:     %d\n", summary.Failed)
	fmt.Fprintf(t.writer, "Active:     %d/%d\n", summary.ActiveNodes, summary.TotalNodes)

	if len(cards) == 0 {
		return nil
	}
	fmt.Fprintln(t.writer)

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "NODE\tSTATE\tMODE\tPROCESSED\tPENDING\tFAILED\tDUPLICATED\tPROGRESS\tELAPSED\tREMAINING")

	// Print rows.
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d%%\t%s\t%s\n",
			c.Name,
			c.State,
			orDash(c.Mode),
			t.stat(c.Processed),
			t.stat(c.Pending),
			t.stat(c.Failed),
			c.Duplicated,
			c.Progress,
			orDash(c.ElapsedTime),
			orDash(c.RemainingTime),
		)
	}

	return nil
}

// PrintTree prints the stage tree, descendants of collapsed nodes are not printed.
func (t *TablePrinter) PrintTree(root *view.TreeNode) error {
	if root == nil {
		fmt.Fprintln(t.writer, "No structure available")
		return nil
	}

	for _, l := range view.VisibleLines(root) {
		n := l.Node
		glyph := n.Glyph
		if glyph == "" {
			glyph = " "
		}
		visited := ""
		if n.Visited {
			visited = " (already visited)"
		}
		fmt.Fprintf(t.writer, "%s%s %s [mode: %s, func: %s]%s\n",
			strings.Repeat("  ", l.Depth), glyph, n.Name, orDash(n.Mode), orDash(n.FuncName), visited)
	}

	return nil
}

// PrintErrors prints the error log.
func (t *TablePrinter) PrintErrors(rows []view.ErrorRow) error {
	if len(rows) == 1 && rows[0].Placeholder {
		fmt.Fprintln(t.writer, rows[0].Error)
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "TIME\tNODE\tTASK\tERROR")

	// Print rows.
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", FormatTimestamp(r.Time), r.Node, orDash(r.TaskID), r.Error)
	}

	return nil
}

// PrintUIState prints the persisted UI state.
func (t *TablePrinter) PrintUIState(s view.UIState) error {
	fmt.Fprintf(t.writer, "Theme:      %s\n", s.Theme)
	fmt.Fprintf(t.writer, "Order:      %s\n", orDash(strings.Join(s.Order, ", ")))
	fmt.Fprintf(t.writer, "Hidden:     %s\n", orDash(strings.Join(s.Hidden, ", ")))
	fmt.Fprintf(t.writer, "Collapsed:  %s\n", orDash(strings.Join(s.Collapsed, ", ")))
	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func (t *TablePrinter) stat(s view.Stat) string {
	if s.Delta == "" {
		return fmt.Sprintf("%d", s.Value)
	}

	delta := s.Delta
	if t.color {
		color := colorGreen
		if s.DeltaClass == view.DeltaDownClass {
			color = colorRed
		}
		delta = color + delta + colorReset
	}
	return fmt.Sprintf("%d (%s)", s.Value, delta)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
