package domain

import (
	"sort"
)

// DiagnosticSet owns the diagnostics of one run and indexes them by file,
// class, package, severity and tool.
//
// Indices are maintained eagerly by Add. The set is not safe for concurrent
// mutation; adapters must run sequentially.
type DiagnosticSet struct {
	filter DiagnosticFilter
	items  []*Diagnostic

	byFile        map[string][]*Diagnostic
	byClass       map[string][]*Diagnostic
	byPackage     map[string][]*Diagnostic // direct members only
	byPackageTree map[string][]*Diagnostic // self and all sub-packages
	bySeverity    map[Severity][]*Diagnostic
	byTool        map[Source][]*Diagnostic
}

// NewDiagnosticSet creates an empty set. filter may be nil to accept everything.
func NewDiagnosticSet(filter DiagnosticFilter) *DiagnosticSet {
	return &DiagnosticSet{
		filter:        filter,
		byFile:        make(map[string][]*Diagnostic),
		byClass:       make(map[string][]*Diagnostic),
		byPackage:     make(map[string][]*Diagnostic),
		byPackageTree: make(map[string][]*Diagnostic),
		bySeverity:    make(map[Severity][]*Diagnostic),
		byTool:        make(map[Source][]*Diagnostic),
	}
}

// Add stores d unless the configured include/exclude rules reject it.
// It reports whether d was stored.
func (s *DiagnosticSet) Add(d *Diagnostic) bool {
	if d == nil {
		return false
	}
	if s.filter != nil && !s.filter.Accepts(d.Source(), d.RuleName(), d.ClassName()) {
		return false
	}
	s.insert(d)
	return true
}

func (s *DiagnosticSet) insert(d *Diagnostic) {
	s.items = append(s.items, d)
	s.byFile[d.FileName()] = append(s.byFile[d.FileName()], d)
	s.byClass[d.ClassName()] = append(s.byClass[d.ClassName()], d)
	s.bySeverity[d.Severity()] = append(s.bySeverity[d.Severity()], d)
	s.byTool[d.Source()] = append(s.byTool[d.Source()], d)

	pkg := d.PackageName()
	s.byPackage[pkg] = append(s.byPackage[pkg], d)
	for {
		s.byPackageTree[pkg] = append(s.byPackageTree[pkg], d)
		if pkg == "" {
			break
		}
		pkg = ParentPackage(pkg)
	}
}

// Size returns the number of stored diagnostics.
func (s *DiagnosticSet) Size() int {
	return len(s.items)
}

// Diagnostics returns the stored diagnostics in insertion order.
func (s *DiagnosticSet) Diagnostics() []*Diagnostic {
	out := make([]*Diagnostic, len(s.items))
	copy(out, s.items)
	return out
}

// Sorted returns the diagnostics ordered by file, start line, severity
// (highest first), rule name and ID.
func (s *DiagnosticSet) Sorted() []*Diagnostic {
	out := s.Diagnostics()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.FileName() != b.FileName() {
			return a.FileName() < b.FileName()
		}
		if a.StartLine() != b.StartLine() {
			return a.StartLine() < b.StartLine()
		}
		if a.Severity() != b.Severity() {
			return a.Severity() > b.Severity()
		}
		if a.RuleName() != b.RuleName() {
			return a.RuleName() < b.RuleName()
		}
		return a.ID() < b.ID()
	})
	return out
}

func (s *DiagnosticSet) subset(items []*Diagnostic) *DiagnosticSet {
	sub := NewDiagnosticSet(s.filter)
	for _, d := range items {
		sub.insert(d)
	}
	return sub
}

// ForTool returns the diagnostics reported by source. SourceAll copies the set.
func (s *DiagnosticSet) ForTool(source Source) *DiagnosticSet {
	if source == SourceAll || source == "" {
		return s.subset(s.items)
	}
	return s.subset(s.byTool[source])
}

// ForSeverity returns the diagnostics of one severity. SeverityAll copies the set.
func (s *DiagnosticSet) ForSeverity(sev Severity) *DiagnosticSet {
	if sev == SeverityAll {
		return s.subset(s.items)
	}
	return s.subset(s.bySeverity[sev])
}

// ForPackage returns the diagnostics of a package, optionally including its
// sub-packages. ForPackage("", true) copies the set.
func (s *DiagnosticSet) ForPackage(name string, includeSubpackages bool) *DiagnosticSet {
	if includeSubpackages {
		return s.subset(s.byPackageTree[name])
	}
	return s.subset(s.byPackage[name])
}

// ForFile returns the diagnostics reported against one file.
func (s *DiagnosticSet) ForFile(fileName string) *DiagnosticSet {
	return s.subset(s.byFile[fileName])
}

// ForClass returns the diagnostics reported against one class.
func (s *DiagnosticSet) ForClass(className string) *DiagnosticSet {
	return s.subset(s.byClass[className])
}

// CountForSeverity returns the number of diagnostics of one severity.
func (s *DiagnosticSet) CountForSeverity(sev Severity) int {
	if sev == SeverityAll {
		return len(s.items)
	}
	return len(s.bySeverity[sev])
}

// SeverityCounts returns the per-bucket counts indexed by severity.
func (s *DiagnosticSet) SeverityCounts() [NumSeverities]int {
	var counts [NumSeverities]int
	for _, sev := range Severities() {
		counts[sev] = len(s.bySeverity[sev])
	}
	return counts
}

// Packages returns the sorted names of packages with direct diagnostics.
func (s *DiagnosticSet) Packages() []string {
	return sortedKeys(s.byPackage)
}

// Files returns the sorted file names with diagnostics.
func (s *DiagnosticSet) Files() []string {
	return sortedKeys(s.byFile)
}

// Classes returns the sorted class names with diagnostics.
func (s *DiagnosticSet) Classes() []string {
	return sortedKeys(s.byClass)
}

// Categories files every diagnostic into a new category tree.
func (s *DiagnosticSet) Categories() *CategoryTree {
	tree := NewCategoryTree()
	for _, d := range s.items {
		tree.Add(d)
	}
	return tree
}

func sortedKeys(m map[string][]*Diagnostic) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
