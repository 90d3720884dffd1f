package analysis

import (
	"sort"
	"strings"

	"pyndex/internal/engine/parser"
	"pyndex/internal/index"
	"pyndex/internal/shared/observability"
)

// mutableDefaultValues are canonical default renderings that name a shared
// mutable object.
var mutableDefaultValues = map[string]bool{
	"[]":     true,
	"{}":     true,
	"set()":  true,
	"list()": true,
	"dict()": true,
}

// loggingMarkers are textual patterns that indicate logging activity inside a
// function body.
var loggingMarkers = []string{
	"logging.", "logger.", "log.debug", "log.info", "log.warning",
	"log.error", "log.critical", "log.exception",
}

// Analyzer runs the auxiliary heuristics over indexed files, accumulating a
// Report. All heuristics are best-effort textual or structural checks; none
// execute or type-check the analyzed code.
type Analyzer struct {
	ix     *index.Indexer
	report Report

	// test-coverage pairing runs at project scope
	testNames map[string]bool
	funcRefs  []funcRef
}

type funcRef struct {
	loc  int
	name string
}

func New(ix *index.Indexer) *Analyzer {
	return &Analyzer{
		ix:        ix,
		testNames: make(map[string]bool),
	}
}

// AnalyzeFile runs every per-file heuristic over one indexed file.
func (a *Analyzer) AnalyzeFile(ents *index.FileEntities) {
	pf := ents.Source

	for _, fn := range ents.Functions {
		a.analyzeFunction(fn, pf, false)
	}
	for _, cls := range ents.Classes {
		a.analyzeClass(cls, pf)
	}

	a.analyzeSQL(ents)
	a.analyzeGlobals(ents)
	a.analyzeGlobalSecrets(ents)
}

// Finish runs the project-scope heuristics and returns the report.
func (a *Analyzer) Finish() *Report {
	for _, ref := range a.funcRefs {
		if a.testNames["test_"+ref.name] {
			continue
		}
		a.report.UntestedFunctions = append(a.report.UntestedFunctions, ref.loc)
	}
	sort.Ints(a.report.UntestedFunctions)

	a.recordMetrics()
	return &a.report
}

func (a *Analyzer) analyzeFunction(fn index.FuncEntity, pf *parser.ParsedFile, isMethod bool) {
	def := fn.Def

	a.checkMutableDefaults(fn)
	a.checkLoggingUsage(fn, pf)

	if strings.HasPrefix(def.Name, "test_") {
		a.testNames[def.Name] = true
	} else if !strings.HasPrefix(def.Name, "_") {
		a.funcRefs = append(a.funcRefs, funcRef{loc: fn.LocID, name: def.Name})
	}

	if def.Docstring == nil {
		if !strings.HasPrefix(def.Name, "_") {
			a.report.MissingDocstrings = append(a.report.MissingDocstrings, fn.LocID)
		}
	} else {
		a.classifyDocstring(fn.LocID, def.Docstring.Text)
	}

	if !hasCompleteTypeHints(def, isMethod) {
		a.report.MissingTypeHints = append(a.report.MissingTypeHints, fn.LocID)
	}
}

func (a *Analyzer) analyzeClass(cls index.ClassEntity, pf *parser.ParsedFile) {
	def := cls.Def

	if def.Docstring == nil {
		if !strings.HasPrefix(def.Name, "_") {
			a.report.MissingDocstrings = append(a.report.MissingDocstrings, cls.LocID)
		}
	} else {
		a.classifyDocstring(cls.LocID, def.Docstring.Text)
	}

	for _, m := range cls.Methods {
		a.analyzeFunction(m, pf, true)
		if m.Def.Name == "__init__" {
			a.checkClassDependencies(cls.LocID, m.Def)
		}
	}

	a.checkAttributeSecrets(cls, pf)
}

func (a *Analyzer) checkMutableDefaults(fn index.FuncEntity) {
	for _, p := range fn.Def.Parameters {
		if !p.HasDefault || !mutableDefaultValues[p.Default] {
			continue
		}
		a.report.MutableDefaults = append(a.report.MutableDefaults, MutableDefault{
			Loc:        fn.LocID,
			ParamIdx:   a.ix.Names.Intern(p.Name),
			DefaultIdx: a.ix.Defaults.Intern(p.Default),
		})
	}
}

// checkLoggingUsage does a textual scan over the function's line span. A
// marker inside a string literal counts as usage; that imprecision is
// accepted.
func (a *Analyzer) checkLoggingUsage(fn index.FuncEntity, pf *parser.ParsedFile) {
	lines := strings.Split(string(pf.Source), "\n")
	start := fn.Def.LineStart - 1
	end := fn.Def.LineEnd
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	for _, line := range lines[start:end] {
		for _, marker := range loggingMarkers {
			if strings.Contains(line, marker) {
				a.report.LoggingUsage = append(a.report.LoggingUsage, fn.LocID)
				return
			}
		}
	}
}

// hasCompleteTypeHints checks annotations on every parameter except
// self/cls/*args/**kwargs, plus the return annotation. Dunder methods other
// than __init__ are exempt; __init__ needs no return annotation.
func hasCompleteTypeHints(def *parser.FunctionDef, isMethod bool) bool {
	dunder := strings.HasPrefix(def.Name, "__") && strings.HasSuffix(def.Name, "__")
	if dunder && def.Name != "__init__" {
		return true
	}

	for i, p := range def.Parameters {
		if p.Kind == parser.ParamVarPositional || p.Kind == parser.ParamVarKeyword {
			continue
		}
		if isMethod && i == 0 && (p.Name == "self" || p.Name == "cls") {
			continue
		}
		if p.TypeHint == "" {
			return false
		}
	}
	if def.Name == "__init__" {
		return true
	}
	return def.ReturnType != ""
}

func (a *Analyzer) checkClassDependencies(classLoc int, init *parser.FunctionDef) {
	for i, p := range init.Parameters {
		if i == 0 && (p.Name == "self" || p.Name == "cls") {
			continue
		}
		if p.TypeHint == "" {
			continue
		}
		a.report.ClassDependencies = append(a.report.ClassDependencies, ClassDependency{
			Loc:      classLoc,
			ParamIdx: a.ix.Names.Intern(p.Name),
			TypeIdx:  a.ix.Names.Intern(p.TypeHint),
		})
	}
}

func (a *Analyzer) classifyDocstring(loc int, text string) {
	format := classifyDocstringFormat(text)
	if format == "plain" {
		return
	}
	a.report.DocstringFormats = append(a.report.DocstringFormats, DocstringFormat{
		Loc:    loc,
		Format: format,
	})
}

func classifyDocstringFormat(text string) string {
	switch {
	case strings.Contains(text, "Parameters\n") && strings.Contains(text, "---"):
		return "numpy"
	case strings.Contains(text, "Args:") || strings.Contains(text, "Returns:") ||
		strings.Contains(text, "Raises:"):
		return "google"
	case strings.Contains(text, ":param") || strings.Contains(text, ":return") ||
		strings.Contains(text, ":rtype"):
		return "sphinx"
	default:
		return "plain"
	}
}

func (a *Analyzer) analyzeSQL(ents *index.FileEntities) {
	for _, lit := range ents.Source.Strings {
		if !looksLikeSQL(lit.Text) {
			continue
		}
		a.report.SQLStrings = append(a.report.SQLStrings, SQLString{
			FileIdx: ents.FileIdx,
			Line:    lit.Line,
			Query:   queryPreview(lit.Text),
			Safe:    !lit.Interpolated,
		})
	}
}

// analyzeGlobals reports module-level mutable state. UPPER_CASE names are
// treated as constants and skipped.
func (a *Analyzer) analyzeGlobals(ents *index.FileEntities) {
	for _, g := range ents.Source.Globals {
		if isUpperName(g.Name) || strings.HasPrefix(g.Name, "_") {
			continue
		}
		rec := GlobalVar{
			Loc:        ents.ModuleLoc,
			NameIdx:    a.ix.Names.Intern(g.Name),
			TypeIdx:    -1,
			DefaultIdx: -1,
			Line:       g.Line,
		}
		if g.TypeHint != "" {
			rec.TypeIdx = a.ix.Names.Intern(g.TypeHint)
		}
		if g.HasDefault {
			rec.DefaultIdx = a.ix.Defaults.Intern(g.Default)
		}
		a.report.Globals = append(a.report.Globals, rec)
	}
}

func (a *Analyzer) analyzeGlobalSecrets(ents *index.FileEntities) {
	for _, g := range ents.Source.Globals {
		if !g.HasDefault || !isSecretName(g.Name) {
			continue
		}
		value, ok := stringLiteralValue(g.Default)
		if !ok || isPlaceholderValue(value) {
			continue
		}
		a.report.Secrets = append(a.report.Secrets, Secret{
			FileIdx: ents.FileIdx,
			Line:    g.Line,
			NameIdx: a.ix.Names.Intern(g.Name),
			Type:    string(ClassifySecret(g.Name)),
		})
	}
}

func (a *Analyzer) checkAttributeSecrets(cls index.ClassEntity, pf *parser.ParsedFile) {
	for _, attr := range cls.Def.Attributes {
		if !attr.HasDefault || !isSecretName(attr.Name) {
			continue
		}
		value, ok := stringLiteralValue(attr.Default)
		if !ok || isPlaceholderValue(value) {
			continue
		}
		fileIdx, _ := a.ix.Files.Index(pf.Path)
		a.report.Secrets = append(a.report.Secrets, Secret{
			FileIdx: fileIdx,
			Line:    attr.Line,
			NameIdx: a.ix.Names.Intern(attr.Name),
			Type:    string(ClassifySecret(attr.Name)),
		})
	}
}

func isUpperName(name string) bool {
	hasLetter := false
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func (a *Analyzer) recordMetrics() {
	counts := map[string]int{
		"mutable_defaults":   len(a.report.MutableDefaults),
		"sql_strings":        len(a.report.SQLStrings),
		"secrets":            len(a.report.Secrets),
		"globals":            len(a.report.Globals),
		"logging_usage":      len(a.report.LoggingUsage),
		"missing_docstrings": len(a.report.MissingDocstrings),
		"missing_type_hints": len(a.report.MissingTypeHints),
		"class_dependencies": len(a.report.ClassDependencies),
		"docstring_formats":  len(a.report.DocstringFormats),
		"untested_functions": len(a.report.UntestedFunctions),
	}
	for analyzer, n := range counts {
		observability.AnalysisFindings.WithLabelValues(analyzer).Add(float64(n))
	}
}
