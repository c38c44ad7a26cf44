package domain

import (
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"
)

// CategoryID addresses a node inside a CategoryTree.
type CategoryID int32

// NoCategory is the parent of the root.
const NoCategory CategoryID = -1

type categoryNode struct {
	name        string
	parent      CategoryID
	level       int
	children    map[string]CategoryID
	diagnostics []*Diagnostic
}

// CategoryTree groups diagnostics by slash-separated category paths.
// Nodes live in one slice and refer to each other by index.
type CategoryTree struct {
	nodes []categoryNode
}

// NewCategoryTree creates a tree holding only the unnamed root.
func NewCategoryTree() *CategoryTree {
	t := &CategoryTree{}
	t.nodes = append(t.nodes, categoryNode{parent: NoCategory, children: map[string]CategoryID{}})
	return t
}

// Root returns the root category.
func (t *CategoryTree) Root() DiagnosticCategory {
	return DiagnosticCategory{tree: t, id: 0}
}

// Add files d into every node named by its category paths. A diagnostic
// categorised {"a", "a/b"} lands in both a and a/b.
func (t *CategoryTree) Add(d *Diagnostic) {
	for _, path := range d.Categories() {
		id := t.ensurePath(path)
		t.nodes[id].diagnostics = append(t.nodes[id].diagnostics, d)
	}
}

func (t *CategoryTree) ensurePath(path string) CategoryID {
	current := CategoryID(0)
	for _, part := range strings.Split(path, "/") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if child, ok := t.nodes[current].children[part]; ok {
			current = child
			continue
		}
		current = t.newNode(part, current)
	}
	return current
}

func (t *CategoryTree) newNode(name string, parent CategoryID) CategoryID {
	n, err := safecast.Conv[int32](len(t.nodes))
	if err != nil {
		panic(fmt.Errorf("category tree overflow: %w", err))
	}
	id := CategoryID(n)
	t.nodes = append(t.nodes, categoryNode{
		name:     name,
		parent:   parent,
		level:    t.nodes[parent].level + 1,
		children: map[string]CategoryID{},
	})
	t.nodes[parent].children[name] = id
	return id
}

// Find returns the node for a slash path without creating it.
func (t *CategoryTree) Find(path string) (DiagnosticCategory, bool) {
	cat := t.Root()
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		next, ok := cat.Child(part)
		if !ok {
			return DiagnosticCategory{}, false
		}
		cat = next
	}
	return cat, true
}

// Len returns the number of nodes including the root.
func (t *CategoryTree) Len() int {
	return len(t.nodes)
}

// DiagnosticCategory is a handle on one node of a CategoryTree.
type DiagnosticCategory struct {
	tree *CategoryTree
	id   CategoryID
}

func (c DiagnosticCategory) node() *categoryNode {
	return &c.tree.nodes[c.id]
}

// ID returns the node index.
func (c DiagnosticCategory) ID() CategoryID { return c.id }

// Name returns the last path element; the root has an empty name.
func (c DiagnosticCategory) Name() string { return c.node().name }

// Level is 0 for the root, 1 for its children and so on.
func (c DiagnosticCategory) Level() int { return c.node().level }

// IsRoot reports whether c is the root.
func (c DiagnosticCategory) IsRoot() bool { return c.id == 0 }

// Parent returns the parent category; ok is false for the root.
func (c DiagnosticCategory) Parent() (DiagnosticCategory, bool) {
	p := c.node().parent
	if p == NoCategory {
		return DiagnosticCategory{}, false
	}
	return DiagnosticCategory{tree: c.tree, id: p}, true
}

// Path returns the slash-separated path from the root.
func (c DiagnosticCategory) Path() string {
	var parts []string
	for cur, ok := c, !c.IsRoot(); ok; cur, ok = cur.Parent() {
		if cur.IsRoot() {
			break
		}
		parts = append(parts, cur.Name())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Child returns the named child.
func (c DiagnosticCategory) Child(name string) (DiagnosticCategory, bool) {
	id, ok := c.node().children[name]
	if !ok {
		return DiagnosticCategory{}, false
	}
	return DiagnosticCategory{tree: c.tree, id: id}, true
}

// Children returns the child categories sorted by name.
func (c DiagnosticCategory) Children() []DiagnosticCategory {
	children := c.node().children
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]DiagnosticCategory, 0, len(names))
	for _, name := range names {
		out = append(out, DiagnosticCategory{tree: c.tree, id: children[name]})
	}
	return out
}

// Diagnostics returns the diagnostics filed directly into this node.
func (c DiagnosticCategory) Diagnostics() []*Diagnostic {
	own := c.node().diagnostics
	out := make([]*Diagnostic, len(own))
	copy(out, own)
	return out
}

// DiagnosticCount counts this node and all its descendants.
func (c DiagnosticCategory) DiagnosticCount() int {
	return c.DiagnosticCountForSeverity(SeverityAll)
}

// DiagnosticCountForSeverity counts this node and all its descendants,
// restricted to one severity unless sev is SeverityAll.
func (c DiagnosticCategory) DiagnosticCountForSeverity(sev Severity) int {
	count := 0
	for _, d := range c.node().diagnostics {
		if sev == SeverityAll || d.Severity() == sev {
			count++
		}
	}
	for _, child := range c.node().children {
		count += DiagnosticCategory{tree: c.tree, id: child}.DiagnosticCountForSeverity(sev)
	}
	return count
}
