package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/adapter"
	"github.com/ludo-technologies/sanity/internal/inventory"
	"github.com/ludo-technologies/sanity/internal/logging"
	"github.com/ludo-technologies/sanity/internal/rules"
)

// ExtractStats aggregates everything a run learns about the analyzed
// sources: the diagnostics and coverage written by the adapters and the
// line counts of the inventory files.
type ExtractStats struct {
	inventory *inventory.Inventory
	target    *adapter.Target
	counter   *LineCounter
	log       *logging.Logger

	lineCounts map[string]int // package -> lines
	counted    bool
}

// NewExtractStats creates an empty aggregate over inv. The rule table both
// filters and classifies diagnostics.
func NewExtractStats(inv *inventory.Inventory, table *rules.Table, counter *LineCounter, log *logging.Logger) *ExtractStats {
	if log == nil {
		log = logging.Discard()
	}
	if counter == nil {
		counter = NewLineCounter()
	}
	var (
		filter     domain.DiagnosticFilter
		classifier domain.Classifier
	)
	if table != nil {
		filter = table
		classifier = table
	}
	return &ExtractStats{
		inventory:  inv,
		target:     adapter.NewTarget(filter, inv, classifier, log),
		counter:    counter,
		log:        log,
		lineCounts: make(map[string]int),
	}
}

// Target is what adapters load into.
func (s *ExtractStats) Target() *adapter.Target {
	return s.target
}

func (s *ExtractStats) Diagnostics() *domain.DiagnosticSet {
	return s.target.Diagnostics
}

func (s *ExtractStats) Coverage() *domain.Coverage {
	return s.target.Coverage
}

func (s *ExtractStats) Inventory() *inventory.Inventory {
	return s.inventory
}

// ComputeStats counts the lines of every inventory file. Unreadable files
// are logged and count as zero lines.
func (s *ExtractStats) ComputeStats(ctx context.Context) error {
	entries := s.inventory.Entries()
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}

	counts, err := s.counter.Count(ctx, paths)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var agg *AggregatedError
		if !errors.As(err, &agg) {
			return err
		}
		for _, te := range agg.Errors {
			if errors.Is(te.Err, context.DeadlineExceeded) || errors.Is(te.Err, context.Canceled) {
				return te.Err
			}
			s.log.Warnf("cannot count lines of %s: %v", te.TaskName, te.Err)
		}
	}

	clear(s.lineCounts)
	for i, e := range entries {
		s.lineCounts[e.PackageName()] += counts[i]
	}
	s.counted = true
	return nil
}

// LineCount returns the counted lines of one package, or of the whole run
// for domain.RootPackage.
func (s *ExtractStats) LineCount(pkg string) int {
	if pkg != domain.RootPackage {
		return s.lineCounts[pkg]
	}
	total := 0
	for _, n := range s.lineCounts {
		total += n
	}
	return total
}

// Packages returns every package seen by the run (inventory classes,
// diagnostics, coverage) together with all of their enclosing packages. The
// root is not included.
func (s *ExtractStats) Packages() []string {
	seen := make(map[string]bool)
	add := func(pkg string) {
		for ; pkg != domain.RootPackage && !seen[pkg]; pkg = domain.ParentPackage(pkg) {
			seen[pkg] = true
		}
	}
	for _, pkg := range s.inventory.Packages() {
		add(pkg)
	}
	for _, pkg := range s.target.Diagnostics.Packages() {
		add(pkg)
	}
	for _, p := range s.target.Coverage.Packages() {
		add(p.Name())
	}

	out := make([]string, 0, len(seen))
	for pkg := range seen {
		out = append(out, pkg)
	}
	sort.Strings(out)
	return out
}

// RunSummary snapshots the run. The root rollup is always the first entry,
// followed by one summary per package in name order. Package counts are
// direct members only, so an enclosing package with nothing of its own is
// listed with zero counts.
func (s *ExtractStats) RunSummary(runDate time.Time) []domain.PackageSummary {
	if !s.counted {
		s.log.Debugf("summarizing before line counts were computed")
	}

	diags := s.target.Diagnostics
	cov := s.target.Coverage

	out := []domain.PackageSummary{
		domain.NewPackageSummary(runDate, domain.RootPackage,
			cov.LineCoverage(), cov.BranchCoverage(),
			diags.SeverityCounts(), s.LineCount(domain.RootPackage)),
	}

	for _, pkg := range s.Packages() {
		var lineCov, branchCov float64
		if p, ok := cov.Lookup(pkg); ok {
			lineCov = p.LineCoverage()
			branchCov = p.BranchCoverage()
		}
		out = append(out, domain.NewPackageSummary(runDate, pkg,
			lineCov, branchCov,
			diags.ForPackage(pkg, false).SeverityCounts(), s.LineCount(pkg)))
	}
	return out
}
