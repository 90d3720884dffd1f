package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ExtractionContext carries shared state and node helpers used by the
// extractor.
type ExtractionContext struct {
	Source []byte
	File   *ParsedFile
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= end || end > uint(len(c.Source)) {
		return ""
	}
	return string(c.Source[start:end])
}

func (c *ExtractionContext) Line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func (c *ExtractionContext) EndLine(node *sitter.Node) int {
	return int(node.EndPosition().Row) + 1
}

// StringValue returns the runtime value of a string node: the concatenated
// string_content parts, with interpolations flattened to "{}".
func (c *ExtractionContext) StringValue(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	var b strings.Builder
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "string_content":
				b.WriteString(c.Text(child))
			case "escape_sequence":
				b.WriteString(c.Text(child))
			case "interpolation":
				b.WriteString("{}")
			default:
				walk(child)
			}
		}
	}
	walk(node)
	return b.String()
}

// IsInterpolated reports whether a string node is an f-string, either by an
// interpolation child or by an f prefix on the opening token.
func (c *ExtractionContext) IsInterpolated(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "interpolation":
			return true
		case "string_start":
			prefix := strings.ToLower(strings.TrimRight(c.Text(child), `"'`))
			if strings.Contains(prefix, "f") {
				return true
			}
		}
	}
	return false
}
