package fake

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/structure"
)

// Handler returns an HTTP handler serving the backend with the default endpoint
// paths. The structure is served in the bordered text form.
func (b *Backend) Handler() http.Handler {
	eps := model.DefaultEndpoints()

	r := mux.NewRouter()
	r.HandleFunc(eps.Status.Path, b.handleStatus).Methods(http.MethodGet)
	r.HandleFunc(eps.Structure.Path, b.handleStructure).Methods(http.MethodGet)
	r.HandleFunc(eps.Errors.Path, b.handleErrors).Methods(http.MethodGet)
	r.HandleFunc(eps.Interval.Path, b.handleInterval).Methods(http.MethodPost)
	r.HandleFunc(eps.Shutdown.Path, b.handleShutdown).Methods(http.MethodPost)
	r.HandleFunc(eps.Inject.Path, b.handleInject).Methods(http.MethodPost)
	r.HandleFunc("/api/get_interval", b.handleGetInterval).Methods(http.MethodGet)

	return r
}

func (b *Backend) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := b.GetStatus(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Encoded by hand to keep the node order.
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range snap.Names {
		st, _ := snap.Get(name)
		k, _ := json.Marshal(name)
		v, err := json.Marshal(nodeStatusToJSON(st))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func (b *Backend) handleStructure(w http.ResponseWriter, r *http.Request) {
	root, err := b.GetStructure(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	lines := []string{}
	if root != nil {
		lines = structure.FormatBordered(*root)
	}
	writeJSON(w, lines)
}

func (b *Backend) handleErrors(w http.ResponseWriter, r *http.Request) {
	records, err := b.GetErrors(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	res := make([]errorRecordJSON, 0, len(records))
	for _, e := range records {
		res = append(res, errorRecordJSON{Error: e.Error, Node: e.Node, TaskID: e.TaskID, Timestamp: e.Timestamp})
	}
	writeJSON(w, res)
}

func (b *Backend) handleInterval(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Interval *float64 `json:"interval"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid interval: %s", err), http.StatusBadRequest)
		return
	}
	ms := 5000.0
	if req.Interval != nil {
		ms = *req.Interval
	}

	if err := b.PushInterval(r.Context(), time.Duration(ms)*time.Millisecond); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte("Interval updated"))
}

func (b *Backend) handleGetInterval(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]float64{"interval": b.Interval().Seconds()})
}

func (b *Backend) handleShutdown(w http.ResponseWriter, r *http.Request) {
	msg, err := b.Shutdown(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(msg))
}

func (b *Backend) handleInject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Node      string         `json:"node"`
		TaskDatas map[string]any `json:"task_datas"`
		Timestamp string         `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ts, err := time.Parse(time.RFC3339Nano, req.Timestamp)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid timestamp: %s", err), http.StatusBadRequest)
		return
	}

	err = b.InjectTask(r.Context(), model.TaskInjection{Node: req.Node, TaskDatas: req.TaskDatas, Timestamp: ts})
	switch {
	case errors.Is(err, model.ErrNotValid):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, model.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type historyJSON struct {
	Timestamp      float64 `json:"timestamp"`
	TasksProcessed int64   `json:"tasks_processed"`
}

type nodeStatusJSON struct {
	Status            int           `json:"status"`
	StageMode         string        `json:"stage_mode"`
	FuncName          string        `json:"func_name"`
	TasksProcessed    int64         `json:"tasks_processed"`
	TasksPending      int64         `json:"tasks_pending"`
	TasksFailed       int64         `json:"tasks_failed"`
	TasksDuplicated   int64         `json:"tasks_duplicated"`
	AddTasksProcessed *int64        `json:"add_tasks_processed,omitempty"`
	AddTasksPending   *int64        `json:"add_tasks_pending,omitempty"`
	AddTasksFailed    *int64        `json:"add_tasks_failed,omitempty"`
	StartTime         string        `json:"start_time"`
	ElapsedTime       string        `json:"elapsed_time"`
	RemainingTime     string        `json:"remaining_time"`
	TaskAvgTime       string        `json:"task_avg_time"`
	History           []historyJSON `json:"history,omitempty"`
}

func nodeStatusToJSON(st model.NodeStatus) nodeStatusJSON {
	res := nodeStatusJSON{
		Status:            int(st.State),
		StageMode:         st.Mode,
		FuncName:          st.FuncName,
		TasksProcessed:    st.TasksProcessed,
		TasksPending:      st.TasksPending,
		TasksFailed:       st.TasksFailed,
		TasksDuplicated:   st.TasksDuplicated,
		AddTasksProcessed: st.AddTasksProcessed,
		AddTasksPending:   st.AddTasksPending,
		AddTasksFailed:    st.AddTasksFailed,
		StartTime:         st.StartTime,
		ElapsedTime:       st.ElapsedTime,
		RemainingTime:     st.RemainingTime,
		TaskAvgTime:       st.TaskAvgTime,
	}
	for _, h := range st.History {
		res.History = append(res.History, historyJSON{Timestamp: h.Timestamp, TasksProcessed: h.TasksProcessed})
	}
	return res
}

type errorRecordJSON struct {
	Error     string  `json:"error"`
	Node      string  `json:"node"`
	TaskID    string  `json:"task_id"`
	Timestamp float64 `json:"timestamp"`
}
