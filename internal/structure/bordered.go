package structure

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/slok/stagewatch/internal/model"
)

const (
	// ArrowMarker prefixes every non root stage line of the bordered form.
	ArrowMarker = "╘-->"
	// VisitedAnnotation is appended to stages that were already reached through another path.
	VisitedAnnotation = "(already visited)"

	indentWidth = 4
)

var stageLineRegexp = regexp.MustCompile(`^(.+?) \(stage_mode: ([^,]*), func: ([^)]*)\)(.*)$`)

type parsedNode struct {
	node     model.StageNode
	children []*parsedNode
}

func (p *parsedNode) toModel() model.StageNode {
	n := p.node
	if len(p.children) > 0 {
		n.Next = make([]model.StageNode, 0, len(p.children))
		for _, c := range p.children {
			n.Next = append(n.Next, c.toModel())
		}
	}
	return n
}

type stackItem struct {
	node  *parsedNode
	depth int
}

// ParseBordered parses the box drawn textual form of the stage tree. The first and
// last lines are the top and bottom borders. It returns nil when the root line is
// malformed or there is no content.
func ParseBordered(lines []string) *model.StageNode {
	if len(lines) < 3 {
		return nil
	}
	content := lines[1 : len(lines)-1]

	rootLine := unframe(content[0])
	if strings.Contains(rootLine, ArrowMarker) {
		return nil
	}
	rootNode, ok := parseStageLine(strings.TrimSpace(rootLine))
	if !ok {
		return nil
	}

	root := &parsedNode{node: rootNode}
	stack := []stackItem{{node: root, depth: 0}}
	for _, raw := range content[1:] {
		line := unframe(raw)
		idx := strings.Index(line, ArrowMarker)
		if idx < 0 {
			continue
		}

		node, ok := parseStageLine(line[idx+len(ArrowMarker):])
		if !ok {
			continue
		}
		depth := leadingWhitespace(line[:idx])/indentWidth + 1

		for len(stack) > 1 && stack[len(stack)-1].depth >= depth {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		child := &parsedNode{node: node}
		parent.children = append(parent.children, child)
		stack = append(stack, stackItem{node: child, depth: depth})
	}

	tree := root.toModel()
	return &tree
}

func parseStageLine(s string) (model.StageNode, bool) {
	m := stageLineRegexp.FindStringSubmatch(strings.TrimRight(s, " "))
	if m == nil {
		return model.StageNode{}, false
	}

	return model.StageNode{
		Name:     m[1],
		Mode:     m[2],
		FuncName: m[3],
		Visited:  strings.Contains(m[4], "already visited"),
	}, true
}

// unframe removes the `| ` and ` |` side borders and the right padding of a line.
func unframe(line string) string {
	line = strings.TrimRight(line, " ")
	if strings.HasPrefix(line, "|") {
		line = strings.TrimPrefix(line[1:], " ")
	}
	if strings.HasSuffix(line, "|") {
		line = line[:len(line)-1]
	}
	return strings.TrimRight(line, " ")
}

func leadingWhitespace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			break
		}
		n++
	}
	return n
}

// FormatBordered renders a stage tree in the box drawn textual form.
func FormatBordered(root model.StageNode) []string {
	lines := formatStage(root, 0)

	maxLen := 0
	for _, l := range lines {
		maxLen = max(maxLen, utf8.RuneCountInString(l))
	}

	border := "+" + strings.Repeat("-", maxLen+2) + "+"
	out := make([]string, 0, len(lines)+2)
	out = append(out, border)
	for _, l := range lines {
		pad := strings.Repeat(" ", maxLen-utf8.RuneCountInString(l))
		out = append(out, "| "+l+pad+" |")
	}
	out = append(out, border)

	return out
}

func formatStage(s model.StageNode, indent int) []string {
	info := s.Name + " (stage_mode: " + s.Mode + ", func: " + s.FuncName + ")"
	if s.Visited {
		return []string{info + " " + VisitedAnnotation}
	}

	lines := []string{info}
	for _, next := range s.Next {
		sub := formatStage(next, indent+2)
		lines = append(lines, strings.Repeat("  ", indent)+ArrowMarker+sub[0])
		lines = append(lines, sub[1:]...)
	}
	return lines
}
