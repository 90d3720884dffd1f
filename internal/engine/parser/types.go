package parser

// ParamKind classifies the five Python parameter kinds in declaration order.
type ParamKind int

const (
	ParamPositionalOnly ParamKind = iota
	ParamPositional
	ParamVarPositional
	ParamKeywordOnly
	ParamVarKeyword
)

func (k ParamKind) String() string {
	switch k {
	case ParamPositionalOnly:
		return "positional_only"
	case ParamPositional:
		return "positional"
	case ParamVarPositional:
		return "*args"
	case ParamKeywordOnly:
		return "keyword_only"
	case ParamVarKeyword:
		return "**kwargs"
	}
	return "unknown"
}

// FuncKind is inferred from well-known decorators.
type FuncKind int

const (
	FuncPlain FuncKind = iota
	FuncClassMethod
	FuncStaticMethod
	FuncProperty
	FuncPropertySetter
)

func (k FuncKind) String() string {
	switch k {
	case FuncClassMethod:
		return "classmethod"
	case FuncStaticMethod:
		return "staticmethod"
	case FuncProperty:
		return "property"
	case FuncPropertySetter:
		return "setter"
	}
	return "function"
}

// Docstring is a bare string literal appearing as the first statement of a
// module, class or function body.
type Docstring struct {
	Text      string
	LineStart int
	LineEnd   int
}

type Parameter struct {
	Name       string
	TypeHint   string
	Default    string
	HasDefault bool
	Kind       ParamKind
}

type FunctionDef struct {
	Name        string
	Parameters  []Parameter
	ReturnType  string
	Decorators  []string
	Docstring   *Docstring
	IsAsync     bool
	Kind        FuncKind
	ParentClass string
	LineStart   int
	LineEnd     int
}

type Attribute struct {
	Name       string
	TypeHint   string
	Default    string
	HasDefault bool
	Line       int
}

type ClassDef struct {
	Name       string
	Bases      []string
	Decorators []string
	Docstring  *Docstring
	Methods    []FunctionDef
	Attributes []Attribute
	LineStart  int
	LineEnd    int
}

// Import is one imported name. "import a.b" yields one record with
// Names=["a.b"]; "from m import a, b" yields one record per name with
// Module="m" and Level counting leading dots (0 for absolute imports).
type Import struct {
	Module string
	Names  []string
	Alias  string
	Level  int
	Line   int
}

type Comment struct {
	Text string
	Line int
}

// StringLit is a string literal captured for the SQL analyzer. Interpolated
// is true for f-strings; their expression parts are flattened to "{}".
type StringLit struct {
	Text         string
	Line         int
	Interpolated bool
}

// GlobalAssign is a module-level assignment captured for the global-variable
// analyzer.
type GlobalAssign struct {
	Name       string
	TypeHint   string
	Default    string
	HasDefault bool
	Line       int
}

// ParsedFile is the structured result of parsing one source file.
type ParsedFile struct {
	Path      string
	Module    string // file stem
	Docstring *Docstring
	Imports   []Import
	Classes   []ClassDef
	Functions []FunctionDef // module-level only
	Comments  []Comment
	Strings   []StringLit
	Globals   []GlobalAssign
	LineCount int
	Source    []byte
}
