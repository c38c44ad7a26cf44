package domain

import "sort"

// LineHit is the recorded coverage of one source line.
type LineHit struct {
	Invocations     int
	IsBranch        bool
	Conditions      int
	CoveredBranches int
}

// Covered reports whether the line was executed at least once.
func (h LineHit) Covered() bool {
	return h.Invocations > 0
}

// ClassCoverage holds the per-line coverage of one class.
type ClassCoverage struct {
	name  string
	lines map[int]*LineHit
}

// NewClassCoverage creates an empty class record.
func NewClassCoverage(className string) *ClassCoverage {
	return &ClassCoverage{name: className, lines: make(map[int]*LineHit)}
}

func (c *ClassCoverage) Name() string { return c.name }

// AddLineCoverage records invocations for one line. A branch line counts as a
// single branch, covered under the same rule as the line itself. Adding a line
// twice accumulates its invocations.
func (c *ClassCoverage) AddLineCoverage(line, invocations int, isBranch bool) {
	hit := c.line(line)
	hit.Invocations += invocations
	if isBranch && !hit.IsBranch {
		hit.IsBranch = true
		hit.Conditions = 1
	}
	if hit.IsBranch && hit.Conditions == 1 {
		hit.CoveredBranches = 0
		if hit.Invocations > 0 {
			hit.CoveredBranches = 1
		}
	}
}

// AddBranchCoverage records partial branch coverage, e.g. "50% (1/2)".
func (c *ClassCoverage) AddBranchCoverage(line, invocations, covered, total int) {
	hit := c.line(line)
	hit.Invocations += invocations
	hit.IsBranch = true
	hit.Conditions = max(total, 0)
	hit.CoveredBranches = min(max(covered, 0), hit.Conditions)
}

func (c *ClassCoverage) line(line int) *LineHit {
	hit, ok := c.lines[line]
	if !ok {
		hit = &LineHit{}
		c.lines[line] = hit
	}
	return hit
}

// Line returns the record for one line.
func (c *ClassCoverage) Line(line int) (LineHit, bool) {
	hit, ok := c.lines[line]
	if !ok {
		return LineHit{}, false
	}
	return *hit, true
}

// Lines returns the instrumented line numbers in ascending order.
func (c *ClassCoverage) Lines() []int {
	out := make([]int, 0, len(c.lines))
	for l := range c.lines {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

func (c *ClassCoverage) LineCount() int { return len(c.lines) }

func (c *ClassCoverage) CoveredLineCount() int {
	n := 0
	for _, h := range c.lines {
		if h.Covered() {
			n++
		}
	}
	return n
}

func (c *ClassCoverage) BranchCount() int {
	n := 0
	for _, h := range c.lines {
		if h.IsBranch {
			n += h.Conditions
		}
	}
	return n
}

func (c *ClassCoverage) CoveredBranchCount() int {
	n := 0
	for _, h := range c.lines {
		if h.IsBranch {
			n += h.CoveredBranches
		}
	}
	return n
}

func (c *ClassCoverage) LineCoverage() float64 {
	return ratio(c.CoveredLineCount(), c.LineCount())
}

func (c *ClassCoverage) BranchCoverage() float64 {
	return ratio(c.CoveredBranchCount(), c.BranchCount())
}

// PackageCoverage owns the classes of one package.
type PackageCoverage struct {
	name    string
	classes map[string]*ClassCoverage
}

// NewPackageCoverage creates an empty package record.
func NewPackageCoverage(name string) *PackageCoverage {
	return &PackageCoverage{name: name, classes: make(map[string]*ClassCoverage)}
}

func (p *PackageCoverage) Name() string { return p.name }

// Class returns the class record, creating it on first use.
func (p *PackageCoverage) Class(className string) *ClassCoverage {
	c, ok := p.classes[className]
	if !ok {
		c = NewClassCoverage(className)
		p.classes[className] = c
	}
	return c
}

// AddClass adds c, replacing any class of the same name.
func (p *PackageCoverage) AddClass(c *ClassCoverage) {
	p.classes[c.Name()] = c
}

// Classes returns the classes sorted by name.
func (p *PackageCoverage) Classes() []*ClassCoverage {
	names := make([]string, 0, len(p.classes))
	for n := range p.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*ClassCoverage, 0, len(names))
	for _, n := range names {
		out = append(out, p.classes[n])
	}
	return out
}

func (p *PackageCoverage) sum(f func(*ClassCoverage) int) int {
	n := 0
	for _, c := range p.classes {
		n += f(c)
	}
	return n
}

func (p *PackageCoverage) LineCount() int {
	return p.sum((*ClassCoverage).LineCount)
}

func (p *PackageCoverage) CoveredLineCount() int {
	return p.sum((*ClassCoverage).CoveredLineCount)
}

func (p *PackageCoverage) BranchCount() int {
	return p.sum((*ClassCoverage).BranchCount)
}

func (p *PackageCoverage) CoveredBranchCount() int {
	return p.sum((*ClassCoverage).CoveredBranchCount)
}

func (p *PackageCoverage) LineCoverage() float64 {
	return ratio(p.CoveredLineCount(), p.LineCount())
}

func (p *PackageCoverage) BranchCoverage() float64 {
	return ratio(p.CoveredBranchCount(), p.BranchCount())
}

// Coverage is the coverage of a whole run.
type Coverage struct {
	packages map[string]*PackageCoverage
}

func NewCoverage() *Coverage {
	return &Coverage{packages: make(map[string]*PackageCoverage)}
}

// Package returns the package record, creating it on first use.
func (c *Coverage) Package(name string) *PackageCoverage {
	p, ok := c.packages[name]
	if !ok {
		p = NewPackageCoverage(name)
		c.packages[name] = p
	}
	return p
}

// Lookup returns the package record without creating it.
func (c *Coverage) Lookup(name string) (*PackageCoverage, bool) {
	p, ok := c.packages[name]
	return p, ok
}

// Class returns the record for a fully qualified class, creating the package
// and class on first use.
func (c *Coverage) Class(className string) *ClassCoverage {
	return c.Package(PackageOf(className)).Class(className)
}

// Packages returns the packages sorted by name.
func (c *Coverage) Packages() []*PackageCoverage {
	names := make([]string, 0, len(c.packages))
	for n := range c.packages {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*PackageCoverage, 0, len(names))
	for _, n := range names {
		out = append(out, c.packages[n])
	}
	return out
}

// IsEmpty reports whether no coverage was recorded.
func (c *Coverage) IsEmpty() bool {
	return len(c.packages) == 0
}

func (c *Coverage) sum(f func(*PackageCoverage) int) int {
	n := 0
	for _, p := range c.packages {
		n += f(p)
	}
	return n
}

func (c *Coverage) LineCount() int {
	return c.sum((*PackageCoverage).LineCount)
}

func (c *Coverage) CoveredLineCount() int {
	return c.sum((*PackageCoverage).CoveredLineCount)
}

func (c *Coverage) BranchCount() int {
	return c.sum((*PackageCoverage).BranchCount)
}

func (c *Coverage) CoveredBranchCount() int {
	return c.sum((*PackageCoverage).CoveredBranchCount)
}

func (c *Coverage) LineCoverage() float64 {
	return ratio(c.CoveredLineCount(), c.LineCount())
}

func (c *Coverage) BranchCoverage() float64 {
	return ratio(c.CoveredBranchCount(), c.BranchCount())
}

func ratio(covered, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(covered) / float64(total)
}
