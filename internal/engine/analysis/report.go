package analysis

// Report collects every analyzer finding for one run. Index fields refer to
// the run's shared interning tables; Loc fields are location ids.
type Report struct {
	MutableDefaults   []MutableDefault   `json:"mutable_defaults,omitempty"`
	SQLStrings        []SQLString        `json:"sql_strings,omitempty"`
	Secrets           []Secret           `json:"secrets,omitempty"`
	Globals           []GlobalVar        `json:"globals,omitempty"`
	LoggingUsage      []int              `json:"logging_usage,omitempty"`
	MissingDocstrings []int              `json:"missing_docstrings,omitempty"`
	MissingTypeHints  []int              `json:"missing_type_hints,omitempty"`
	ClassDependencies []ClassDependency  `json:"class_dependencies,omitempty"`
	DocstringFormats  []DocstringFormat  `json:"docstring_formats,omitempty"`
	UntestedFunctions []int              `json:"untested_functions,omitempty"`
}

// MutableDefault flags a parameter whose default is a shared mutable object.
type MutableDefault struct {
	Loc        int `json:"loc"`
	ParamIdx   int `json:"param"`
	DefaultIdx int `json:"default"`
}

// SQLString is a string literal containing SQL keywords. Safe is false for
// f-strings, where interpolation can splice user input into the statement.
type SQLString struct {
	FileIdx int    `json:"file"`
	Line    int    `json:"line"`
	Query   string `json:"query"`
	Safe    bool   `json:"safe"`
}

// Secret is a credential-looking assignment with a non-placeholder literal
// value. The value itself is never recorded.
type Secret struct {
	FileIdx int    `json:"file"`
	Line    int    `json:"line"`
	NameIdx int    `json:"name"`
	Type    string `json:"type"`
}

// GlobalVar is a module-level mutable variable. UPPER_CASE constants are not
// reported.
type GlobalVar struct {
	Loc        int `json:"loc"` // owning module
	NameIdx    int `json:"name"`
	TypeIdx    int `json:"type"`
	DefaultIdx int `json:"default"`
	Line       int `json:"line"`
}

// ClassDependency is a typed non-self __init__ parameter, a
// dependency-injection candidate.
type ClassDependency struct {
	Loc      int `json:"loc"` // owning class
	ParamIdx int `json:"param"`
	TypeIdx  int `json:"type"`
}

// DocstringFormat classifies a documented entity's docstring convention.
type DocstringFormat struct {
	Loc    int    `json:"loc"`
	Format string `json:"format"` // numpy, google, sphinx, plain
}

func (r *Report) FindingCount() int {
	return len(r.MutableDefaults) + len(r.SQLStrings) + len(r.Secrets) +
		len(r.Globals) + len(r.LoggingUsage) + len(r.MissingDocstrings) +
		len(r.MissingTypeHints) + len(r.ClassDependencies) +
		len(r.DocstringFormats) + len(r.UntestedFunctions)
}
