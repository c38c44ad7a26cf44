// Package inventory collects the source files of a run and maps the paths
// reported by analysis tools back onto them.
package inventory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/ludo-technologies/sanity/internal/logging"
	"github.com/ludo-technologies/sanity/internal/parser"
)

// DefaultExtensions are collected when no extension list is configured.
var DefaultExtensions = []string{".java", ".go"}

// Options selects the files of an inventory.
type Options struct {
	Roots            []string
	Extensions       []string
	IncludePatterns  []string
	ExcludePatterns  []string
	RespectGitignore bool
	Logger           *logging.Logger
}

// Entry is one collected source file.
type Entry struct {
	Path      string   // absolute, OS separators
	Root      string   // absolute root the file was found under
	RelPath   string   // relative to Root, slash separated
	ClassName string   // primary class
	Classes   []string // every top-level class declared in the file
}

// PackageName returns the package of the primary class.
func (e Entry) PackageName() string {
	if i := strings.LastIndexByte(e.ClassName, '.'); i >= 0 {
		return e.ClassName[:i]
	}
	return ""
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern  string
	glob     glob.Glob
	basename bool
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	var out []compiledPattern
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		out = append(out, compiledPattern{
			pattern:  pattern,
			glob:     g,
			basename: !strings.Contains(pattern, "/"),
		})
	}
	return out, nil
}

// matchAny matches patterns without a slash against the base name and the
// others against the whole relative path.
func matchAny(patterns []compiledPattern, relPath string) bool {
	base := relPath
	if i := strings.LastIndexByte(relPath, '/'); i >= 0 {
		base = relPath[i+1:]
	}
	for _, p := range patterns {
		if p.basename {
			if p.glob.Match(base) {
				return true
			}
			continue
		}
		if p.glob.Match(relPath) {
			return true
		}
	}
	return false
}

type collector struct {
	opts       Options
	log        *logging.Logger
	extensions map[string]bool
	includes   []compiledPattern
	excludes   []compiledPattern
	java       *parser.Parser
	seen       map[string]bool
	entries    []Entry
}

// Collect walks the roots and builds the inventory. A root may be a single
// file. A missing root is an error; finding no files is not.
func Collect(opts Options) (*Inventory, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	includes, err := compilePatterns(opts.IncludePatterns)
	if err != nil {
		return nil, err
	}
	excludes, err := compilePatterns(opts.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	c := &collector{
		opts:       opts,
		log:        log,
		extensions: make(map[string]bool, len(exts)),
		includes:   includes,
		excludes:   excludes,
		java:       parser.NewJavaParser(),
		seen:       make(map[string]bool),
	}
	defer c.java.Close()
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.extensions[ext] = true
	}

	for _, root := range opts.Roots {
		if err := c.collectRoot(root); err != nil {
			return nil, err
		}
	}
	return newInventory(c.entries, log)
}

func (c *collector) collectRoot(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if c.accepts(filepath.Base(abs)) {
			c.add(filepath.Dir(abs), abs)
		}
		return nil
	}

	var gitignore *ignore.GitIgnore
	if c.opts.RespectGitignore {
		gitignore = loadGitignore(abs, c.log)
	}

	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == abs {
			return nil
		}
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") ||
				matchAny(c.excludes, rel) ||
				(gitignore != nil && gitignore.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if gitignore != nil && gitignore.MatchesPath(rel) {
			return nil
		}
		if c.accepts(rel) {
			c.add(abs, path)
		}
		return nil
	})
}

func loadGitignore(root string, log *logging.Logger) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		log.Warnf("ignoring unreadable %s: %v", path, err)
		return nil
	}
	return gi
}

func (c *collector) accepts(rel string) bool {
	if !c.extensions[strings.ToLower(filepath.Ext(rel))] {
		return false
	}
	if len(c.includes) > 0 && !matchAny(c.includes, rel) {
		return false
	}
	return !matchAny(c.excludes, rel)
}

func (c *collector) add(root, path string) {
	if c.seen[path] {
		return
	}
	c.seen[path] = true

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	entry := Entry{
		Path:    path,
		Root:    root,
		RelPath: filepath.ToSlash(rel),
	}
	entry.ClassName, entry.Classes = c.classNames(root, path)
	c.entries = append(c.entries, entry)
}

func (c *collector) classNames(root, path string) (string, []string) {
	if strings.EqualFold(filepath.Ext(path), ".java") {
		src, err := os.ReadFile(path)
		if err == nil {
			unit, perr := c.java.ParseFile(path, src)
			if perr == nil {
				if unit.HasErrors {
					c.log.Debugf("%s has syntax errors; class names may be incomplete", path)
				}
				return unit.PrimaryClass(), unit.ClassNames()
			}
			err = perr
		}
		c.log.Warnf("cannot read %s, deriving its class from the path: %v", path, err)
	}
	name := parser.ClassNameFromPath(root, path)
	return name, []string{name}
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
}
