// Package rules holds the rule table that assigns severity and categories to
// diagnostics and decides which diagnostics are kept.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"github.com/maypok86/otter"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/logging"
)

const lookupCacheSize = 4096

// Spec is one entry of a rule file. Source and Rule are glob patterns
// matched case-insensitively; Includes and Excludes are regular
// expressions that must match the whole class name.
type Spec struct {
	Source     string   `json:"source" mapstructure:"source" yaml:"source"`
	Rule       string   `json:"rule" mapstructure:"rule" yaml:"rule"`
	Severity   string   `json:"severity" mapstructure:"severity" yaml:"severity"`
	Categories []string `json:"categories" mapstructure:"categories" yaml:"categories"`
	Includes   []string `json:"includes" mapstructure:"includes" yaml:"includes"`
	Excludes   []string `json:"excludes" mapstructure:"excludes" yaml:"excludes"`
}

// File is the typed rule file layout.
type File struct {
	Rules []Spec `json:"rules" mapstructure:"rules" yaml:"rules"`
}

// Rule is a compiled Spec.
type Rule struct {
	Spec       Spec
	Severity   domain.Severity
	Categories []string

	source   glob.Glob
	rule     glob.Glob
	includes []*regexp.Regexp
	excludes []*regexp.Regexp
}

// MatchesClass applies the include and exclude expressions.
func (r *Rule) MatchesClass(className string) bool {
	for _, re := range r.excludes {
		if re.MatchString(className) {
			return false
		}
	}
	if len(r.includes) == 0 {
		return true
	}
	for _, re := range r.includes {
		if re.MatchString(className) {
			return true
		}
	}
	return false
}

type lookup struct {
	rule *Rule
}

// Table is an ordered list of rules; the first match wins. It implements
// domain.Classifier and domain.DiagnosticFilter. Not safe for concurrent use.
type Table struct {
	rules  []*Rule
	cache  otter.Cache[string, lookup]
	warned map[string]bool
	log    *logging.Logger
}

var (
	_ domain.Classifier       = (*Table)(nil)
	_ domain.DiagnosticFilter = (*Table)(nil)
)

// NewTable compiles specs in order.
func NewTable(specs []Spec, log *logging.Logger) (*Table, error) {
	if log == nil {
		log = logging.Discard()
	}
	cache, err := otter.MustBuilder[string, lookup](lookupCacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("building rule cache: %w", err)
	}
	t := &Table{cache: cache, warned: make(map[string]bool), log: log}
	for i, spec := range specs {
		r, err := compile(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s.%s): %w", i+1, spec.Source, spec.Rule, err)
		}
		t.rules = append(t.rules, r)
	}
	return t, nil
}

// Empty returns a table without rules: everything is INFO and kept.
func Empty(log *logging.Logger) *Table {
	t, err := NewTable(nil, log)
	if err != nil {
		panic(err)
	}
	return t
}

func compile(spec Spec) (*Rule, error) {
	r := &Rule{Spec: spec, Severity: domain.SeverityInfo}
	var err error
	if r.source, err = compileGlob(spec.Source); err != nil {
		return nil, err
	}
	if r.rule, err = compileGlob(spec.Rule); err != nil {
		return nil, err
	}
	if strings.TrimSpace(spec.Severity) != "" {
		if r.Severity, err = domain.ParseSeverity(spec.Severity); err != nil {
			return nil, err
		}
	}
	for _, c := range spec.Categories {
		if c = strings.TrimSpace(c); c != "" {
			r.Categories = append(r.Categories, c)
		}
	}
	if r.includes, err = compileRegexps(spec.Includes); err != nil {
		return nil, err
	}
	if r.excludes, err = compileRegexps(spec.Excludes); err != nil {
		return nil, err
	}
	return r, nil
}

func compileGlob(pattern string) (glob.Glob, error) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		pattern = "*"
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return g, nil
}

func compileRegexps(exprs []string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, expr := range exprs {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		re, err := regexp.Compile("^(?:" + expr + ")$")
		if err != nil {
			return nil, fmt.Errorf("invalid class expression %q: %w", expr, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Lookup returns the first rule matching source and ruleName.
func (t *Table) Lookup(source domain.Source, ruleName string) (*Rule, bool) {
	key := strings.ToLower(string(source)) + "\x00" + strings.ToLower(ruleName)
	if l, ok := t.cache.Get(key); ok {
		return l.rule, l.rule != nil
	}
	var found *Rule
	src, name := strings.ToLower(string(source)), strings.ToLower(ruleName)
	for _, r := range t.rules {
		if r.source.Match(src) && r.rule.Match(name) {
			found = r
			break
		}
	}
	t.cache.Set(key, lookup{rule: found})
	return found, found != nil
}

// Classify sets severity and categories from the matching rule. Diagnostics
// without a rule become INFO without categories, with one warning per
// source and rule name.
func (t *Table) Classify(d *domain.Diagnostic) {
	r, ok := t.Lookup(d.Source(), d.RuleName())
	if !ok {
		key := string(d.Source()) + "." + d.RuleName()
		if !t.warned[key] {
			t.warned[key] = true
			t.log.Warnf("no rule configured for %s, using %s", key, domain.SeverityInfo)
		}
		d.SetSeverity(domain.SeverityInfo)
		d.SetCategories(nil)
		return
	}
	d.SetSeverity(r.Severity)
	d.SetCategories(r.Categories)
}

// Accepts reports whether a diagnostic passes the include and exclude
// expressions of its rule. Diagnostics without a rule are kept.
func (t *Table) Accepts(source domain.Source, ruleName, className string) bool {
	r, ok := t.Lookup(source, ruleName)
	if !ok {
		return true
	}
	return r.MatchesClass(className)
}

// Close releases the lookup cache.
func (t *Table) Close() {
	t.cache.Close()
}
