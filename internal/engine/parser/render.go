package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Ellipsis is the placeholder for expressions too complex to render.
const Ellipsis = "..."

// RenderValue converts a default-value expression to its canonical string
// form: simple literals keep their literal syntax, container literals
// flatten to empty-container placeholders, bare list()/dict()/set() calls
// are kept, and anything else collapses to "...". Values are never
// evaluated.
func (c *ExtractionContext) RenderValue(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "integer", "float", "true", "false", "none", "ellipsis":
		return c.Text(node)
	case "string", "concatenated_string":
		return c.Text(node)
	case "unary_operator":
		// Signed numeric literals such as -1 stay literal.
		if arg := node.ChildByFieldName("argument"); arg != nil {
			switch arg.Kind() {
			case "integer", "float":
				return c.Text(node)
			}
		}
		return Ellipsis
	case "list", "list_comprehension":
		return "[]"
	case "dictionary", "dictionary_comprehension":
		return "{}"
	case "set", "set_comprehension":
		return "set()"
	case "tuple", "generator_expression":
		return "()"
	case "call":
		fn := node.ChildByFieldName("function")
		args := node.ChildByFieldName("arguments")
		callee := c.Text(fn)
		if (callee == "list" || callee == "dict" || callee == "set" || callee == "tuple") &&
			argumentCount(args) == 0 {
			return callee + "()"
		}
		return Ellipsis
	default:
		return Ellipsis
	}
}

func argumentCount(args *sitter.Node) int {
	if args == nil {
		return 0
	}
	count := 0
	for i := uint(0); i < args.ChildCount(); i++ {
		child := args.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "(", ")", ",", "comment":
		default:
			count++
		}
	}
	return count
}

// RenderAnnotation converts a type-annotation expression to a
// whitespace-normalized copy of its source text. Annotations are kept whole
// (int, List[str], pkg.Base) because the index must round-trip them.
func (c *ExtractionContext) RenderAnnotation(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return strings.Join(strings.Fields(c.Text(node)), " ")
}

// RenderDottedName resolves identifier and attribute expressions to a single
// dotted string (Base, pkg.Base). Subscripted generics keep their source
// form. Anything else returns "".
func (c *ExtractionContext) RenderDottedName(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "identifier", "attribute", "dotted_name":
		return c.Text(node)
	case "subscript":
		return strings.Join(strings.Fields(c.Text(node)), " ")
	default:
		return ""
	}
}
