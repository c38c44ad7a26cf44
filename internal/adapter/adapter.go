// Package adapter translates the result files of external analysis and
// coverage tools into the canonical diagnostic and coverage model.
package adapter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"fortio.org/safecast"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/logging"
)

// Adapter reads one tool's result format.
type Adapter interface {
	Source() domain.Source
	// Load folds the results read from r into t. A result that does not
	// match the expected schema is an AdapterError.
	Load(r io.Reader, t *Target) error
}

// Target bundles the run-scoped state adapters write into. Adapters must be
// called sequentially against one Target.
type Target struct {
	Diagnostics *domain.DiagnosticSet
	Coverage    *domain.Coverage
	Resolver    domain.PathResolver
	Classifier  domain.Classifier
	IDs         *domain.IDSequence
	Logger      *logging.Logger

	unresolved map[string]bool
}

// NewTarget creates a target with fresh diagnostics, coverage and IDs.
func NewTarget(filter domain.DiagnosticFilter, resolver domain.PathResolver, classifier domain.Classifier, log *logging.Logger) *Target {
	return &Target{
		Diagnostics: domain.NewDiagnosticSet(filter),
		Coverage:    domain.NewCoverage(),
		Resolver:    resolver,
		Classifier:  classifier,
		IDs:         &domain.IDSequence{},
		Logger:      log,
	}
}

func (t *Target) log() *logging.Logger {
	if t.Logger == nil {
		return logging.Discard()
	}
	return t.Logger
}

// resolve maps a tool path onto the inventory, logging each unresolvable
// path once.
func (t *Target) resolve(source domain.Source, toolPath string) (string, string, bool) {
	class, abs, err := t.Resolver.Resolve(toolPath)
	if err != nil {
		if t.unresolved == nil {
			t.unresolved = make(map[string]bool)
		}
		if !t.unresolved[toolPath] {
			t.unresolved[toolPath] = true
			t.log().Warnf("%s: %v", source, err)
		}
		return "", "", false
	}
	return class, abs, true
}

// emit resolves the finding's path, classifies it and adds it to the set.
// It reports whether the diagnostic was stored.
func (t *Target) emit(d *domain.Diagnostic, toolPath string) bool {
	class, abs, ok := t.resolve(d.Source(), toolPath)
	if !ok {
		return false
	}
	d.SetClassName(class)
	d.SetFileName(abs)
	if t.Classifier != nil {
		t.Classifier.Classify(d)
	}
	return t.Diagnostics.Add(d)
}

// Options tunes adapters that have tool-specific quirks.
type Options struct {
	// SpuriousPatterns drop line-0 Checkstyle findings whose message matches.
	// Nil selects DefaultSpuriousPatterns.
	SpuriousPatterns []string
}

// DefaultSpuriousPatterns matches Checkstyle's reports of its own crashes.
var DefaultSpuriousPatterns = []string{`^Got an exception`}

// ForSource returns the adapter for source.
func ForSource(source domain.Source, opts Options) (Adapter, error) {
	switch source {
	case domain.SourceCheckstyle:
		patterns := opts.SpuriousPatterns
		if patterns == nil {
			patterns = DefaultSpuriousPatterns
		}
		c, err := NewCheckstyle(patterns)
		if err != nil {
			return nil, err
		}
		return c, nil
	case domain.SourcePMD:
		return PMD{}, nil
	case domain.SourcePMDCPD:
		return CPD{}, nil
	case domain.SourceSpotBugs:
		return SpotBugs{}, nil
	case domain.SourceGosec:
		return Sonar{}, nil
	case domain.SourceCobertura:
		return Cobertura{}, nil
	case domain.SourceGoCover:
		return GoCover{}, nil
	}
	return nil, domain.NewUnsupportedFormatError(string(source))
}

// Sources lists the tools an adapter exists for.
func Sources() []domain.Source {
	return domain.KnownSources()
}

// LoadFile opens path and runs a over it. A missing file is reported as
// FileNotFound so callers can decide whether the tool was mandatory.
func LoadFile(a Adapter, path string, t *Target) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewFileNotFoundError(path, err)
		}
		return domain.NewAdapterError(a.Source(), path, err)
	}
	defer f.Close()

	if err := a.Load(f, t); err != nil {
		var de domain.DomainError
		if errors.As(err, &de) {
			return err
		}
		return domain.NewAdapterError(a.Source(), path, err)
	}
	return nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid spurious pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// toInt narrows a count read from a result file, saturating on overflow.
func toInt(v int64) int {
	n, err := safecast.Conv[int](v)
	if err != nil {
		if v < 0 {
			return 0
		}
		return int(^uint(0) >> 1)
	}
	return n
}
