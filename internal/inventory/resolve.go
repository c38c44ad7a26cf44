package inventory

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/maypok86/otter"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/logging"
)

const resolveCacheSize = 10_000

type resolution struct {
	entry *Entry
	err   error
}

// Inventory is the path and class index of one run. It implements
// domain.PathResolver.
type Inventory struct {
	entries []Entry
	byPath  map[string]*Entry
	byClass map[string]*Entry
	cache   otter.Cache[string, resolution]
	log     *logging.Logger
}

var _ domain.PathResolver = (*Inventory)(nil)

// New builds an inventory over already collected entries.
func New(entries []Entry) (*Inventory, error) {
	return newInventory(entries, logging.Discard())
}

func newInventory(entries []Entry, log *logging.Logger) (*Inventory, error) {
	cache, err := otter.MustBuilder[string, resolution](resolveCacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("building resolution cache: %w", err)
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sortEntries(sorted)

	inv := &Inventory{
		entries: sorted,
		byPath:  make(map[string]*Entry, len(sorted)),
		byClass: make(map[string]*Entry, len(sorted)),
		cache:   cache,
		log:     log,
	}
	for i := range inv.entries {
		e := &inv.entries[i]
		inv.byPath[e.Path] = e
		for _, class := range append([]string{e.ClassName}, e.Classes...) {
			if _, dup := inv.byClass[class]; !dup {
				inv.byClass[class] = e
			}
		}
	}
	return inv, nil
}

// Len returns the number of source files.
func (inv *Inventory) Len() int {
	return len(inv.entries)
}

// Entries returns the source files sorted by path.
func (inv *Inventory) Entries() []Entry {
	out := make([]Entry, len(inv.entries))
	copy(out, inv.entries)
	return out
}

// Packages returns the distinct packages of the primary classes.
func (inv *Inventory) Packages() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range inv.entries {
		pkg := e.PackageName()
		if !seen[pkg] {
			seen[pkg] = true
			out = append(out, pkg)
		}
	}
	return out
}

// Close releases the resolution cache.
func (inv *Inventory) Close() {
	inv.cache.Close()
}

// Resolve maps a tool-reported path to the class and absolute path of an
// inventory file. Absolute paths are looked up directly; anything else is
// matched by its longest path suffix that identifies exactly one file, which
// covers paths relative to a source root, to the project and Go import paths.
func (inv *Inventory) Resolve(toolPath string) (string, string, error) {
	if r, ok := inv.cache.Get(toolPath); ok {
		return r.result()
	}
	r := inv.resolve(toolPath)
	inv.cache.Set(toolPath, r)
	return r.result()
}

func (r resolution) result() (string, string, error) {
	if r.err != nil {
		return "", "", r.err
	}
	return r.entry.ClassName, r.entry.Path, nil
}

func (inv *Inventory) resolve(toolPath string) resolution {
	trimmed := strings.TrimSpace(toolPath)
	if trimmed == "" {
		return resolution{err: domain.NewPathResolutionError(toolPath, fmt.Errorf("empty path"))}
	}
	if filepath.IsAbs(trimmed) {
		if e, ok := inv.byPath[filepath.Clean(trimmed)]; ok {
			return resolution{entry: e}
		}
	}

	parts := strings.Split(strings.TrimPrefix(filepath.ToSlash(filepath.Clean(trimmed)), "/"), "/")
	for i := range parts {
		suffix := strings.Join(parts[i:], "/")
		if suffix == "" || suffix == "." || suffix == ".." {
			continue
		}
		matches := inv.withSuffix(suffix)
		switch len(matches) {
		case 0:
			continue
		case 1:
			return resolution{entry: matches[0]}
		default:
			return resolution{err: domain.NewPathResolutionError(toolPath,
				fmt.Errorf("ambiguous: %d source files end with %s", len(matches), suffix))}
		}
	}
	return resolution{err: domain.NewPathResolutionError(toolPath, fmt.Errorf("not in the source inventory"))}
}

func (inv *Inventory) withSuffix(suffix string) []*Entry {
	var out []*Entry
	for i := range inv.entries {
		e := &inv.entries[i]
		full := filepath.ToSlash(e.Path)
		if full == suffix || strings.HasSuffix(full, "/"+suffix) {
			out = append(out, e)
		}
	}
	return out
}

// ResolveClass finds the file declaring className. Nested classes
// (Outer$Inner) resolve to their outermost class.
func (inv *Inventory) ResolveClass(className string) (Entry, bool) {
	if i := strings.IndexByte(className, '$'); i >= 0 {
		className = className[:i]
	}
	e, ok := inv.byClass[className]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}
