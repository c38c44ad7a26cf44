package parser

import (
	"path/filepath"
	"strings"
)

// TypeKind is the declaration keyword of a top-level type
type TypeKind string

const (
	KindClass      TypeKind = "class"
	KindInterface  TypeKind = "interface"
	KindEnum       TypeKind = "enum"
	KindRecord     TypeKind = "record"
	KindAnnotation TypeKind = "annotation"
)

// TypeDecl is one top-level type of a compilation unit
type TypeDecl struct {
	Name      string
	Kind      TypeKind
	Public    bool
	StartLine int
	EndLine   int
}

// CompilationUnit is what the inventory needs from one Java file
type CompilationUnit struct {
	FileName  string
	Package   string
	Types     []TypeDecl
	HasErrors bool
}

// Qualify prefixes name with the unit's package.
func (u *CompilationUnit) Qualify(name string) string {
	if u.Package == "" {
		return name
	}
	return u.Package + "." + name
}

// PrimaryClass returns the fully qualified name of the type the file is
// named after. A file without a matching declaration falls back to its
// public type, then its first type, then its base name.
func (u *CompilationUnit) PrimaryClass() string {
	base := strings.TrimSuffix(filepath.Base(u.FileName), filepath.Ext(u.FileName))
	for _, t := range u.Types {
		if t.Name == base {
			return u.Qualify(t.Name)
		}
	}
	for _, t := range u.Types {
		if t.Public && t.Name != "" {
			return u.Qualify(t.Name)
		}
	}
	if len(u.Types) > 0 && u.Types[0].Name != "" {
		return u.Qualify(u.Types[0].Name)
	}
	return u.Qualify(base)
}

// ClassNames returns the qualified names of every top-level type.
func (u *CompilationUnit) ClassNames() []string {
	out := make([]string, 0, len(u.Types))
	for _, t := range u.Types {
		if t.Name != "" {
			out = append(out, u.Qualify(t.Name))
		}
	}
	return out
}
