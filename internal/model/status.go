package model

// NodeState is the execution state of a backend node.
type NodeState int

const (
	NodeStateNotStarted NodeState = iota
	NodeStateRunning
	NodeStateStopped
)

func (s NodeState) String() string {
	switch s {
	case NodeStateRunning:
		return "running"
	case NodeStateStopped:
		return "stopped"
	default:
		return "not-started"
	}
}

// HistorySample is a processed count sample of a node at a point in time.
type HistorySample struct {
	// Timestamp is the sample time in unix seconds.
	Timestamp      float64
	TasksProcessed int64
}

// NodeStatus is the status of a backend node for the latest refresh.
type NodeStatus struct {
	State    NodeState
	Mode     string
	FuncName string

	TasksProcessed  int64
	TasksPending    int64
	TasksFailed     int64
	TasksDuplicated int64

	// Deltas for the latest reporting interval, nil when the backend doesn't report them.
	AddTasksProcessed *int64
	AddTasksPending   *int64
	AddTasksFailed    *int64

	// Timing fields are owned and formatted by the backend.
	StartTime     string
	ElapsedTime   string
	RemainingTime string
	TaskAvgTime   string

	History []HistorySample
}

// Active returns true if the node is running.
func (n NodeStatus) Active() bool { return n.State == NodeStateRunning }

// StatusSnapshot is the node name to status mapping of a refresh. Names keeps the
// order in which the backend reported the nodes.
type StatusSnapshot struct {
	Names []string
	Nodes map[string]NodeStatus
}

// NewStatusSnapshot returns an empty snapshot.
func NewStatusSnapshot() *StatusSnapshot {
	return &StatusSnapshot{Nodes: map[string]NodeStatus{}}
}

// Set adds or replaces a node status, new nodes are appended to the order.
func (s *StatusSnapshot) Set(name string, st NodeStatus) {
	if s.Nodes == nil {
		s.Nodes = map[string]NodeStatus{}
	}
	if _, ok := s.Nodes[name]; !ok {
		s.Names = append(s.Names, name)
	}
	s.Nodes[name] = st
}

// Get returns the status of a node.
func (s *StatusSnapshot) Get(name string) (NodeStatus, bool) {
	if s == nil {
		return NodeStatus{}, false
	}
	st, ok := s.Nodes[name]
	return st, ok
}

// Len returns the number of nodes.
func (s *StatusSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Names)
}
