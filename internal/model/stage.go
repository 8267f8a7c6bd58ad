package model

// StageNode is a single stage of the backend execution pipeline. Each refresh
// delivers a fresh and complete tree, stages have no stable backend identity.
type StageNode struct {
	Name     string      `json:"stage_name"`
	Mode     string      `json:"stage_mode"`
	FuncName string      `json:"func_name"`
	Visited  bool        `json:"visited"`
	Next     []StageNode `json:"next_stages"`
}

// HasChildren returns true if the stage has next stages.
func (s StageNode) HasChildren() bool { return len(s.Next) > 0 }

// Count returns the number of stages in the tree rooted at s (s included).
func (s StageNode) Count() int {
	n := 1
	for _, c := range s.Next {
		n += c.Count()
	}
	return n
}

// Walk visits the tree depth first in execution order. The visit function receives
// the node id of each stage and its depth (root is 0).
func (s StageNode) Walk(fn func(id string, depth int, node StageNode)) {
	s.walk("", 0, fn)
}

func (s StageNode) walk(parentID string, depth int, fn func(id string, depth int, node StageNode)) {
	id := NodeID(parentID, s.Name)
	fn(id, depth, s)
	for _, c := range s.Next {
		c.walk(id, depth+1, fn)
	}
}

// NodeID returns the path based id of a stage. The id is only positional, two
// different trees can produce the same id if sibling names repeat.
func NodeID(parentID, stageName string) string {
	return parentID + "/" + stageName
}
