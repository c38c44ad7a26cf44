// Package parser extracts the package and top-level type declarations of
// Java compilation units so file paths can be mapped to class names.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// Parser wraps a tree-sitter parser for Java. It is not safe for
// concurrent use.
type Parser struct {
	parser   *sitter.Parser
	language *sitter.Language
}

// NewJavaParser creates a new Java parser
func NewJavaParser() *Parser {
	parser := sitter.NewParser()
	lang := java.GetLanguage()
	parser.SetLanguage(lang)

	return &Parser{
		parser:   parser,
		language: lang,
	}
}

// ParseFile parses one Java compilation unit
func (p *Parser) ParseFile(filename string, source []byte) (*CompilationUnit, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse file %s: %v", filename, err)
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	if rootNode == nil {
		return nil, fmt.Errorf("no root node in parse tree for %s", filename)
	}

	unit := &CompilationUnit{FileName: filename, HasErrors: rootNode.HasError()}
	for i := 0; i < int(rootNode.NamedChildCount()); i++ {
		child := rootNode.NamedChild(i)
		switch child.Type() {
		case "package_declaration":
			unit.Package = packageName(child, source)
		default:
			if kind, ok := typeKinds[child.Type()]; ok {
				unit.Types = append(unit.Types, typeDecl(child, kind, source))
			}
		}
	}
	return unit, nil
}

// ParseString parses Java source held in a string
func (p *Parser) ParseString(source string) (*CompilationUnit, error) {
	return p.ParseFile("<input>", []byte(source))
}

// Close closes the parser and frees resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

var typeKinds = map[string]TypeKind{
	"class_declaration":           KindClass,
	"interface_declaration":       KindInterface,
	"enum_declaration":            KindEnum,
	"record_declaration":          KindRecord,
	"annotation_type_declaration": KindAnnotation,
}

func packageName(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "scoped_identifier", "identifier":
			return strings.Join(strings.Fields(child.Content(source)), "")
		}
	}
	return ""
}

func typeDecl(node *sitter.Node, kind TypeKind, source []byte) TypeDecl {
	decl := TypeDecl{
		Kind:      kind,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
	}
	if name := node.ChildByFieldName("name"); name != nil {
		decl.Name = name.Content(source)
	}
	if mods := firstChildOfType(node, "modifiers"); mods != nil {
		decl.Public = strings.Contains(" "+mods.Content(source)+" ", " public ")
	}
	return decl
}

func firstChildOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

// ClassNameFromPath derives a dotted class name for files no parser
// understands: the path relative to root with separators turned into dots
// and the extension dropped.
func ClassNameFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
	return strings.ReplaceAll(rel, "/", ".")
}
