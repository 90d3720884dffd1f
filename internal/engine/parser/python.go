package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonExtractor turns a parsed tree into a ParsedFile. It visits
// top-level statements plus one level of methods inside classes; nested
// definitions inside function bodies are out of scope.
type PythonExtractor struct{}

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, filePath string) *ParsedFile {
	file := &ParsedFile{
		Path:      filePath,
		Module:    moduleStem(filePath),
		LineCount: countLines(source),
		Source:    source,
	}
	ctx := &ExtractionContext{Source: source, File: file}

	firstStmt := true
	for i := uint(0); i < root.ChildCount(); i++ {
		node := root.Child(i)
		if node == nil {
			continue
		}
		kind := node.Kind()
		if kind == "comment" {
			continue
		}

		if firstStmt {
			firstStmt = false
			if doc := docstringFromStatement(ctx, node); doc != nil {
				file.Docstring = doc
				continue
			}
		}

		switch kind {
		case "import_statement":
			e.extractImport(ctx, node)
		case "import_from_statement", "future_import_statement":
			e.extractFromImport(ctx, node)
		case "function_definition":
			fn := e.extractFunction(ctx, node, nil, "")
			file.Functions = append(file.Functions, fn)
		case "class_definition":
			file.Classes = append(file.Classes, e.extractClass(ctx, node, nil))
		case "decorated_definition":
			decorators, def := e.splitDecorated(ctx, node)
			if def == nil {
				continue
			}
			switch def.Kind() {
			case "function_definition":
				fn := e.extractFunction(ctx, def, decorators, "")
				file.Functions = append(file.Functions, fn)
			case "class_definition":
				file.Classes = append(file.Classes, e.extractClass(ctx, def, decorators))
			}
		case "expression_statement":
			e.extractGlobalAssign(ctx, node)
		}
	}

	e.collectStrings(ctx, root)
	file.Comments = extractComments(source)
	return file
}

func moduleStem(path string) string {
	base := path
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base
}

func countLines(source []byte) int {
	if len(source) == 0 {
		return 1
	}
	n := 1
	for _, b := range source {
		if b == '\n' {
			n++
		}
	}
	return n
}

// docstringFromStatement returns the docstring when the statement is a bare
// string expression, nil otherwise.
func docstringFromStatement(ctx *ExtractionContext, node *sitter.Node) *Docstring {
	if node == nil || node.Kind() != "expression_statement" || node.ChildCount() != 1 {
		return nil
	}
	str := node.Child(0)
	if str == nil || str.Kind() != "string" && str.Kind() != "concatenated_string" {
		return nil
	}
	return &Docstring{
		Text:      ctx.StringValue(str),
		LineStart: ctx.Line(str),
		LineEnd:   ctx.EndLine(str),
	}
}

func (e *PythonExtractor) splitDecorated(ctx *ExtractionContext, node *sitter.Node) ([]string, *sitter.Node) {
	var decorators []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "decorator" {
			if dec := e.resolveDecorator(ctx, child); dec != "" {
				decorators = append(decorators, dec)
			}
		}
	}
	return decorators, node.ChildByFieldName("definition")
}

// resolveDecorator renders a decorator expression: bare names and attribute
// accesses keep their dotted text, calls keep the callee plus up to three
// canonically rendered arguments.
func (e *PythonExtractor) resolveDecorator(ctx *ExtractionContext, node *sitter.Node) string {
	var expr *sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() == "@" || child.Kind() == "comment" {
			continue
		}
		expr = child
		break
	}
	if expr == nil {
		return ""
	}
	switch expr.Kind() {
	case "identifier", "attribute":
		return ctx.Text(expr)
	case "call":
		callee := ctx.RenderDottedName(expr.ChildByFieldName("function"))
		if callee == "" {
			return ""
		}
		return callee + "(" + e.renderCallArgs(ctx, expr.ChildByFieldName("arguments")) + ")"
	default:
		return strings.Join(strings.Fields(ctx.Text(expr)), " ")
	}
}

func (e *PythonExtractor) renderCallArgs(ctx *ExtractionContext, args *sitter.Node) string {
	if args == nil {
		return ""
	}
	const maxArgs = 3
	var rendered []string
	truncated := false
	for i := uint(0); i < args.ChildCount(); i++ {
		child := args.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "(", ")", ",", "comment":
			continue
		}
		if len(rendered) == maxArgs {
			truncated = true
			break
		}
		rendered = append(rendered, ctx.RenderValue(child))
	}
	if truncated {
		rendered = append(rendered, Ellipsis)
	}
	return strings.Join(rendered, ", ")
}

func (e *PythonExtractor) extractClass(ctx *ExtractionContext, node *sitter.Node, decorators []string) ClassDef {
	cls := ClassDef{
		Name:       ctx.Text(node.ChildByFieldName("name")),
		Decorators: decorators,
		LineStart:  ctx.Line(node),
		LineEnd:    ctx.EndLine(node),
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.ChildCount(); i++ {
			child := supers.Child(i)
			if child == nil || child.Kind() == "keyword_argument" {
				continue
			}
			if base := ctx.RenderDottedName(child); base != "" {
				cls.Bases = append(cls.Bases, base)
			}
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return cls
	}

	firstStmt := true
	for i := uint(0); i < body.ChildCount(); i++ {
		stmt := body.Child(i)
		if stmt == nil || stmt.Kind() == "comment" {
			continue
		}
		if firstStmt {
			firstStmt = false
			if doc := docstringFromStatement(ctx, stmt); doc != nil {
				cls.Docstring = doc
				continue
			}
		}

		switch stmt.Kind() {
		case "function_definition":
			cls.Methods = append(cls.Methods, e.extractFunction(ctx, stmt, nil, cls.Name))
		case "decorated_definition":
			decs, def := e.splitDecorated(ctx, stmt)
			if def != nil && def.Kind() == "function_definition" {
				cls.Methods = append(cls.Methods, e.extractFunction(ctx, def, decs, cls.Name))
			}
		case "expression_statement":
			if attr, ok := e.extractAttribute(ctx, stmt); ok {
				cls.Attributes = append(cls.Attributes, attr)
			}
		}
	}
	return cls
}

// extractAttribute handles the two class-body attribute shapes:
// "name: Type = default" and "name = default". Private plain assignments
// are skipped; annotated ones are always kept.
func (e *PythonExtractor) extractAttribute(ctx *ExtractionContext, stmt *sitter.Node) (Attribute, bool) {
	if stmt.ChildCount() != 1 {
		return Attribute{}, false
	}
	assign := stmt.Child(0)
	if assign == nil || assign.Kind() != "assignment" {
		return Attribute{}, false
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return Attribute{}, false
	}

	name := ctx.Text(left)
	annotation := assign.ChildByFieldName("type")
	if annotation == nil && strings.HasPrefix(name, "_") {
		return Attribute{}, false
	}

	attr := Attribute{
		Name:     name,
		TypeHint: ctx.RenderAnnotation(annotation),
		Line:     ctx.Line(assign),
	}
	if right := assign.ChildByFieldName("right"); right != nil {
		attr.Default = ctx.RenderValue(right)
		attr.HasDefault = true
	}
	return attr, true
}

func (e *PythonExtractor) extractFunction(ctx *ExtractionContext, node *sitter.Node, decorators []string, parentClass string) FunctionDef {
	fn := FunctionDef{
		Name:        ctx.Text(node.ChildByFieldName("name")),
		Decorators:  decorators,
		Kind:        inferFuncKind(decorators),
		ParentClass: parentClass,
		LineStart:   ctx.Line(node),
		LineEnd:     ctx.EndLine(node),
	}
	if first := node.Child(0); first != nil && first.Kind() == "async" {
		fn.IsAsync = true
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		fn.ReturnType = ctx.RenderAnnotation(ret)
	}
	fn.Parameters = e.extractParameters(ctx, node.ChildByFieldName("parameters"))

	if body := node.ChildByFieldName("body"); body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			stmt := body.Child(i)
			if stmt == nil || stmt.Kind() == "comment" {
				continue
			}
			fn.Docstring = docstringFromStatement(ctx, stmt)
			break
		}
	}
	return fn
}

func inferFuncKind(decorators []string) FuncKind {
	for _, dec := range decorators {
		base := dec
		if i := strings.Index(base, "("); i >= 0 {
			base = base[:i]
		}
		switch {
		case base == "classmethod":
			return FuncClassMethod
		case base == "staticmethod":
			return FuncStaticMethod
		case base == "property":
			return FuncProperty
		case strings.HasSuffix(base, ".setter"):
			return FuncPropertySetter
		}
	}
	return FuncPlain
}

// extractParameters walks the parameter list once, tracking the "/" and "*"
// separators that switch parameters between the five kinds. Defaults need no
// tail alignment here: the grammar attaches each default to its parameter.
func (e *PythonExtractor) extractParameters(ctx *ExtractionContext, params *sitter.Node) []Parameter {
	if params == nil {
		return nil
	}

	var out []Parameter
	keywordOnly := false
	for i := uint(0); i < params.ChildCount(); i++ {
		node := params.Child(i)
		if node == nil {
			continue
		}
		switch node.Kind() {
		case "(", ")", ",", "comment":
			continue
		case "positional_separator":
			// Everything before "/" is positional-only.
			for j := range out {
				if out[j].Kind == ParamPositional {
					out[j].Kind = ParamPositionalOnly
				}
			}
			continue
		case "keyword_separator":
			keywordOnly = true
			continue
		case "list_splat_pattern":
			out = append(out, Parameter{
				Name: strings.TrimLeft(ctx.Text(node), "*"),
				Kind: ParamVarPositional,
			})
			keywordOnly = true
			continue
		case "dictionary_splat_pattern":
			out = append(out, Parameter{
				Name: strings.TrimLeft(ctx.Text(node), "*"),
				Kind: ParamVarKeyword,
			})
			continue
		}

		param, ok := e.namedParameter(ctx, node)
		if !ok {
			continue
		}
		if keywordOnly {
			param.Kind = ParamKeywordOnly
		}
		out = append(out, param)
	}
	return out
}

func (e *PythonExtractor) namedParameter(ctx *ExtractionContext, node *sitter.Node) (Parameter, bool) {
	switch node.Kind() {
	case "identifier":
		return Parameter{Name: ctx.Text(node), Kind: ParamPositional}, true
	case "typed_parameter":
		var name string
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "identifier" {
				name = ctx.Text(child)
				break
			}
		}
		return Parameter{
			Name:     name,
			TypeHint: ctx.RenderAnnotation(node.ChildByFieldName("type")),
			Kind:     ParamPositional,
		}, name != ""
	case "default_parameter":
		return Parameter{
			Name:       ctx.Text(node.ChildByFieldName("name")),
			Default:    ctx.RenderValue(node.ChildByFieldName("value")),
			HasDefault: true,
			Kind:       ParamPositional,
		}, true
	case "typed_default_parameter":
		return Parameter{
			Name:       ctx.Text(node.ChildByFieldName("name")),
			TypeHint:   ctx.RenderAnnotation(node.ChildByFieldName("type")),
			Default:    ctx.RenderValue(node.ChildByFieldName("value")),
			HasDefault: true,
			Kind:       ParamPositional,
		}, true
	default:
		return Parameter{}, false
	}
}

func (e *PythonExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) {
	line := ctx.Line(node)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "identifier":
			module := ctx.Text(child)
			ctx.File.Imports = append(ctx.File.Imports, Import{
				Module: module,
				Names:  []string{module},
				Line:   line,
			})
		case "aliased_import":
			module := ctx.Text(child.ChildByFieldName("name"))
			alias := ctx.Text(child.ChildByFieldName("alias"))
			if module == "" {
				continue
			}
			ctx.File.Imports = append(ctx.File.Imports, Import{
				Module: module,
				Names:  []string{module},
				Alias:  alias,
				Line:   line,
			})
		}
	}
}

func (e *PythonExtractor) extractFromImport(ctx *ExtractionContext, node *sitter.Node) {
	line := ctx.Line(node)
	module := ""
	level := 0

	seenImport := false
	type namedImport struct {
		name  string
		alias string
	}
	var names []namedImport

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import":
			seenImport = true
		case "relative_import":
			for j := uint(0); j < child.ChildCount(); j++ {
				sub := child.Child(j)
				if sub == nil {
					continue
				}
				switch sub.Kind() {
				case "import_prefix":
					level = strings.Count(ctx.Text(sub), ".")
				case "dotted_name":
					module = ctx.Text(sub)
				}
			}
		case "dotted_name", "identifier":
			if !seenImport {
				module = ctx.Text(child)
			} else {
				names = append(names, namedImport{name: ctx.Text(child)})
			}
		case "aliased_import":
			names = append(names, namedImport{
				name:  ctx.Text(child.ChildByFieldName("name")),
				alias: ctx.Text(child.ChildByFieldName("alias")),
			})
		case "wildcard_import":
			names = append(names, namedImport{name: "*"})
		}
	}

	// One record per imported name, each carrying the source module and the
	// relative-import level.
	for _, n := range names {
		if n.name == "" {
			continue
		}
		ctx.File.Imports = append(ctx.File.Imports, Import{
			Module: module,
			Names:  []string{n.name},
			Alias:  n.alias,
			Level:  level,
			Line:   line,
		})
	}
}

func (e *PythonExtractor) extractGlobalAssign(ctx *ExtractionContext, stmt *sitter.Node) {
	if stmt.ChildCount() != 1 {
		return
	}
	assign := stmt.Child(0)
	if assign == nil || assign.Kind() != "assignment" {
		return
	}
	left := assign.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}

	g := GlobalAssign{
		Name:     ctx.Text(left),
		TypeHint: ctx.RenderAnnotation(assign.ChildByFieldName("type")),
		Line:     ctx.Line(assign),
	}
	if right := assign.ChildByFieldName("right"); right != nil {
		g.Default = ctx.RenderValue(right)
		g.HasDefault = true
	}
	ctx.File.Globals = append(ctx.File.Globals, g)
}

// collectStrings gathers every string literal in the tree for the SQL
// analyzer, flagging f-strings as interpolated.
func (e *PythonExtractor) collectStrings(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}
	if node.Kind() == "string" {
		ctx.File.Strings = append(ctx.File.Strings, StringLit{
			Text:         ctx.StringValue(node),
			Line:         ctx.Line(node),
			Interpolated: ctx.IsInterpolated(node),
		})
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.collectStrings(ctx, node.Child(i))
	}
}

// extractComments line-scans the source for whole-line # comments, dropping
// the marker and surrounding whitespace. Empty comments are ignored.
func extractComments(source []byte) []Comment {
	var comments []Comment
	for i, line := range strings.Split(string(source), "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
		if text == "" {
			continue
		}
		comments = append(comments, Comment{Text: text, Line: i + 1})
	}
	return comments
}
