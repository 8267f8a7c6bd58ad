package view

import (
	"fmt"
	"strings"

	"github.com/slok/stagewatch/internal/model"
)

// Delta CSS classes.
const (
	DeltaUpClass   = "delta-up"
	DeltaDownClass = "delta-down"
)

// Stat is a card counter with its optional signed delta.
type Stat struct {
	Value int64 `json:"value"`
	// Delta is empty when there is no change.
	Delta      string `json:"delta,omitempty"`
	DeltaClass string `json:"delta_class,omitempty"`
}

func newStat(v int64, delta *int64) Stat {
	d, class := FormatDelta(delta)
	return Stat{Value: v, Delta: d, DeltaClass: class}
}

// Card is a node status card.
type Card struct {
	Name       string `json:"name"`
	State      string `json:"state"`
	Active     bool   `json:"active"`
	Mode       string `json:"mode"`
	FuncName   string `json:"func_name"`
	Processed  Stat   `json:"processed"`
	Pending    Stat   `json:"pending"`
	Failed     Stat   `json:"failed"`
	Duplicated int64  `json:"duplicated"`
	Progress   int    `json:"progress"`

	StartTime     string `json:"start_time"`
	ElapsedTime   string `json:"elapsed_time"`
	RemainingTime string `json:"remaining_time"`
	TaskAvgTime   string `json:"task_avg_time"`
}

// Progress returns the completion percentage of a node, failed tasks count as done.
func Progress(processed, failed, pending int64) int {
	done := processed + failed
	total := done + pending
	if total <= 0 {
		return 0
	}
	return int(done * 100 / total)
}

// FormatDelta returns the signed text and class of a delta, both empty when the
// delta is absent or zero.
func FormatDelta(delta *int64) (text, class string) {
	switch {
	case delta == nil || *delta == 0:
		return "", ""
	case *delta > 0:
		return fmt.Sprintf("+%d", *delta), DeltaUpClass
	default:
		return fmt.Sprintf("%d", *delta), DeltaDownClass
	}
}

// OrderNames returns the card order: names in the user order present in the
// snapshot first, then the rest in snapshot order. The dragging node is excluded.
func OrderNames(status *model.StatusSnapshot, order []string, dragging string) []string {
	if status.Len() == 0 {
		return []string{}
	}

	res := make([]string, 0, status.Len())
	seen := map[string]struct{}{}
	add := func(name string) {
		if name == dragging {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		if _, ok := status.Get(name); !ok {
			return
		}
		seen[name] = struct{}{}
		res = append(res, name)
	}

	for _, name := range order {
		add(name)
	}
	for _, name := range status.Names {
		add(name)
	}

	return res
}

// BuildCards returns the status cards in display order.
func BuildCards(status *model.StatusSnapshot, order []string, dragging string) []Card {
	names := OrderNames(status, order, dragging)
	cards := make([]Card, 0, len(names))
	for _, name := range names {
		st, _ := status.Get(name)
		cards = append(cards, Card{
			Name:          name,
			State:         st.State.String(),
			Active:        st.Active(),
			Mode:          st.Mode,
			FuncName:      st.FuncName,
			Processed:     newStat(st.TasksProcessed, st.AddTasksProcessed),
			Pending:       newStat(st.TasksPending, st.AddTasksPending),
			Failed:        newStat(st.TasksFailed, st.AddTasksFailed),
			Duplicated:    st.TasksDuplicated,
			Progress:      Progress(st.TasksProcessed, st.TasksFailed, st.TasksPending),
			StartTime:     st.StartTime,
			ElapsedTime:   st.ElapsedTime,
			RemainingTime: st.RemainingTime,
			TaskAvgTime:   st.TaskAvgTime,
		})
	}

	return cards
}

// Summary is the totals of every node.
type Summary struct {
	Processed   int64 `json:"processed"`
	Pending     int64 `json:"pending"`
	Failed      int64 `json:"failed"`
	ActiveNodes int   `json:"active_nodes"`
	TotalNodes  int   `json:"total_nodes"`
}

// BuildSummary returns the totals of a status snapshot.
func BuildSummary(status *model.StatusSnapshot) Summary {
	var s Summary
	if status == nil {
		return s
	}

	for _, name := range status.Names {
		st, _ := status.Get(name)
		s.Processed += st.TasksProcessed
		s.Pending += st.TasksPending
		s.Failed += st.TasksFailed
		if st.Active() {
			s.ActiveNodes++
		}
		s.TotalNodes++
	}

	return s
}

// NodeFilterOptions returns the node names selectable on the error log filter.
func NodeFilterOptions(status *model.StatusSnapshot) []string {
	if status == nil {
		return []string{}
	}
	return append([]string{}, status.Names...)
}

// InjectionNode is a node that can receive injected tasks.
type InjectionNode struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Mode   string `json:"mode"`
}

// InjectionNodes returns the nodes whose name contains the search term, case insensitive.
func InjectionNodes(status *model.StatusSnapshot, search string) []InjectionNode {
	res := []InjectionNode{}
	if status == nil {
		return res
	}

	search = strings.ToLower(strings.TrimSpace(search))
	for _, name := range status.Names {
		if search != "" && !strings.Contains(strings.ToLower(name), search) {
			continue
		}
		st, _ := status.Get(name)
		mode := st.Mode
		if mode == "" {
			mode = "unknown"
		}
		res = append(res, InjectionNode{Name: name, Active: st.Active(), Mode: mode})
	}

	return res
}
