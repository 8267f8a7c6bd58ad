// Package view computes the dashboard view models from the backend models and
// the UI state. It knows nothing about terminals or HTML, the adapters render
// the returned structures.
package view

import "github.com/slok/stagewatch/internal/model"

// Collapse glyphs.
const (
	GlyphExpanded  = "▼"
	GlyphCollapsed = "▶"
)

// CollapseChecker knows if a stage tree node is collapsed.
type CollapseChecker interface {
	IsCollapsed(id string) bool
}

// TreeNode is a rendered stage tree node.
type TreeNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Mode     string `json:"mode"`
	FuncName string `json:"func_name"`
	Visited  bool   `json:"visited"`
	// Glyph is only set on nodes with children.
	Glyph       string     `json:"glyph,omitempty"`
	HasChildren bool       `json:"has_children"`
	Collapsed   bool       `json:"collapsed"`
	Children    []TreeNode `json:"children,omitempty"`
}

// BuildTree builds the whole view tree of a stage tree, nil root means no structure.
// Descendants of collapsed nodes are still built with their own collapse state,
// adapters decide how to hide them.
func BuildTree(root *model.StageNode, collapse CollapseChecker) *TreeNode {
	if root == nil {
		return nil
	}

	n := buildTreeNode("", *root, collapse)
	return &n
}

func buildTreeNode(parentID string, s model.StageNode, collapse CollapseChecker) TreeNode {
	n := TreeNode{
		ID:          model.NodeID(parentID, s.Name),
		Name:        s.Name,
		Mode:        s.Mode,
		FuncName:    s.FuncName,
		Visited:     s.Visited,
		HasChildren: s.HasChildren(),
	}

	if n.HasChildren {
		n.Collapsed = collapse != nil && collapse.IsCollapsed(n.ID)
		n.Glyph = GlyphExpanded
		if n.Collapsed {
			n.Glyph = GlyphCollapsed
		}

		n.Children = make([]TreeNode, 0, len(s.Next))
		for _, c := range s.Next {
			n.Children = append(n.Children, buildTreeNode(n.ID, c, collapse))
		}
	}

	return n
}

// VisibleTreeLine is a tree node flattened for line based rendering.
type VisibleTreeLine struct {
	Depth int
	Node  TreeNode
}

// VisibleLines flattens the tree depth first skipping the descendants of
// collapsed nodes.
func VisibleLines(root *TreeNode) []VisibleTreeLine {
	if root == nil {
		return nil
	}

	var lines []VisibleTreeLine
	var walk func(n TreeNode, depth int)
	walk = func(n TreeNode, depth int) {
		lines = append(lines, VisibleTreeLine{Depth: depth, Node: n})
		if n.Collapsed {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(*root, 0)

	return lines
}
