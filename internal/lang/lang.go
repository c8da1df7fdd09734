// Package lang provides a language registry mapping file extensions to
// tree-sitter languages and the node tables the margin needs for them.
package lang

import (
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/structmargin/internal/model"
	"github.com/phobologic/structmargin/internal/syntax"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language

	// Members maps declaration node types to the structure model's kinds.
	// Node types missing from the table are flattened by the builder.
	Members map[string]model.CodeMemberType

	// Named lists the member kinds whose CodeBlock carries a name.
	Named map[model.CodeMemberType]bool

	// Regions lists node types that start a region.
	Regions map[string]bool

	// Identifiers lists node types that name a symbol.
	Identifiers map[string]bool

	// Declarations maps declaring node types to the symbol kind they declare.
	Declarations map[string]model.SymbolKind

	// Scopes lists node types that open a lexical scope for name binding.
	Scopes map[string]bool

	// Usage describes the node types the usage classifier inspects.
	Usage UsageNodes

	// RefineSymbol adjusts the symbol kind of a declarator from its context
	// (a variable declarator can be a field, an event or a local).
	RefineSymbol func(decl *syntax.Node, kind model.SymbolKind) model.SymbolKind
}

// UsageNodes lists the syntax shapes that turn a reference into a write.
type UsageNodes struct {
	Assignments  map[string]bool
	Updates      map[string]bool // ++ and --
	Arguments    map[string]bool // may carry ref/out modifiers
	MemberAccess map[string]bool
	Parens       map[string]bool
	Null         map[string]bool
	WriteModes   []string // argument modifiers that write
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// MemberType classifies a node type, returning model.Unknown when the node
// is not a declaration the structure model keeps.
func (l *Language) MemberType(nodeType string) model.CodeMemberType {
	if t, ok := l.Members[nodeType]; ok {
		return t
	}
	return model.Unknown
}

// DeclarationName returns the identifier node naming a declaration.
func (l *Language) DeclarationName(decl *syntax.Node) *syntax.Node {
	if n := decl.ChildByField("name"); n != nil {
		return n
	}
	for _, c := range decl.Children {
		if l.Identifiers[c.Type] {
			return c
		}
	}
	return nil
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[strings.ToLower(ext)]
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// enclosing returns the nearest ancestor of n whose type is in types,
// stopping at any ancestor in stop.
func enclosing(n *syntax.Node, types, stop map[string]bool) *syntax.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if types[p.Type] {
			return p
		}
		if stop[p.Type] {
			return nil
		}
	}
	return nil
}
