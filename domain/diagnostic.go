package domain

import (
	"strings"
	"sync/atomic"
)

// IDSequence hands out process-unique, monotonically increasing diagnostic
// IDs. One sequence is shared by every adapter of a run.
type IDSequence struct {
	last atomic.Int64
}

// Next returns the next ID. The first ID is 1.
func (s *IDSequence) Next() int64 {
	return s.last.Add(1)
}

// Diagnostic is one normalized finding from one tool.
//
// Positions are 1-based, 0 meaning unknown. The setters keep
// endLine >= startLine and endColumn >= startColumn whatever the call order.
type Diagnostic struct {
	id          int64
	source      Source
	severity    Severity
	className   string
	fileName    string
	startLine   int
	endLine     int
	startColumn int
	endColumn   int
	ruleName    string
	message     string
	categories  []string
}

// NewDiagnostic creates a diagnostic with the next ID from seq.
func NewDiagnostic(seq *IDSequence, source Source) *Diagnostic {
	return &Diagnostic{id: seq.Next(), source: source, severity: SeverityInfo}
}

func (d *Diagnostic) ID() int64          { return d.id }
func (d *Diagnostic) Source() Source     { return d.source }
func (d *Diagnostic) Severity() Severity { return d.severity }
func (d *Diagnostic) ClassName() string  { return d.className }
func (d *Diagnostic) FileName() string   { return d.fileName }
func (d *Diagnostic) StartLine() int     { return d.startLine }
func (d *Diagnostic) EndLine() int       { return d.endLine }
func (d *Diagnostic) StartColumn() int   { return d.startColumn }
func (d *Diagnostic) EndColumn() int     { return d.endColumn }
func (d *Diagnostic) RuleName() string   { return d.ruleName }
func (d *Diagnostic) Message() string    { return d.message }

// Categories returns a copy of the category paths.
func (d *Diagnostic) Categories() []string {
	out := make([]string, len(d.categories))
	copy(out, d.categories)
	return out
}

// PackageName is the class name up to its last dot, or "" for the default package.
func (d *Diagnostic) PackageName() string {
	return PackageOf(d.className)
}

// PackageOf derives a package name from a fully qualified class name.
func PackageOf(className string) string {
	if i := strings.LastIndexByte(className, '.'); i >= 0 {
		return className[:i]
	}
	return ""
}

// ParentPackage returns the enclosing package, "" for top level packages.
func ParentPackage(pkg string) string {
	return PackageOf(pkg)
}

func (d *Diagnostic) SetSeverity(s Severity) { d.severity = s }
func (d *Diagnostic) SetClassName(n string)  { d.className = n }
func (d *Diagnostic) SetFileName(n string)   { d.fileName = n }
func (d *Diagnostic) SetRuleName(n string)   { d.ruleName = n }
func (d *Diagnostic) SetMessage(m string)    { d.message = m }

// SetCategories replaces the category paths, dropping blanks and duplicates.
func (d *Diagnostic) SetCategories(categories []string) {
	d.categories = d.categories[:0]
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		c = strings.Trim(strings.TrimSpace(c), "/")
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		d.categories = append(d.categories, c)
	}
}

// SetStartLine moves the start line, pulling the end line along if needed.
func (d *Diagnostic) SetStartLine(line int) {
	d.startLine = line
	if d.endLine < line {
		d.endLine = line
	}
}

// SetEndLine sets the end line, never below the start line.
func (d *Diagnostic) SetEndLine(line int) {
	d.endLine = max(line, d.startLine)
}

// SetStartColumn moves the start column, pulling the end column along if needed.
func (d *Diagnostic) SetStartColumn(col int) {
	d.startColumn = col
	if d.endColumn < col {
		d.endColumn = col
	}
}

// SetEndColumn sets the end column, never below the start column.
func (d *Diagnostic) SetEndColumn(col int) {
	d.endColumn = max(col, d.startColumn)
}

// SetLines is shorthand for SetStartLine followed by SetEndLine.
func (d *Diagnostic) SetLines(start, end int) {
	d.SetStartLine(start)
	d.SetEndLine(end)
}

// Classifier assigns severity and categories from the rule table.
type Classifier interface {
	Classify(d *Diagnostic)
}

// DiagnosticFilter decides at insertion time whether a diagnostic is kept.
type DiagnosticFilter interface {
	Accepts(source Source, ruleName, className string) bool
}

// PathResolver maps a tool-reported path onto the source inventory.
type PathResolver interface {
	// Resolve returns the class name and absolute path for toolPath, or a
	// PathResolutionError.
	Resolve(toolPath string) (className, absPath string, err error)
}
