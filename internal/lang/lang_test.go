package lang

import (
	"testing"

	"github.com/phobologic/structmargin/internal/model"
	"github.com/phobologic/structmargin/internal/syntax"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".cs", "csharp"},
		{".CS", "csharp"},
		{".java", "java"},
		{".go", ""},
		{".py", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			got := ForExtension(tt.ext)
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"csharp", "java"} {
		l, ok := Languages[name]
		if !ok {
			t.Fatalf("%s language not registered", name)
		}
		if l.GetLanguage() == nil {
			t.Errorf("%s language is nil", name)
		}
		if l.NewParser() == nil {
			t.Errorf("%s NewParser returned nil", name)
		}
	}
}

func TestMemberType(t *testing.T) {
	t.Parallel()

	cs := Languages["csharp"]
	tests := []struct {
		node string
		want model.CodeMemberType
	}{
		{"class_declaration", model.Class},
		{"record_declaration", model.Class},
		{"destructor_declaration", model.Constructor},
		{"operator_declaration", model.Method},
		{"indexer_declaration", model.Property},
		{"event_field_declaration", model.Event},
		{"namespace_declaration", model.Unknown},
		{"block", model.Unknown},
	}
	for _, tt := range tests {
		if got := cs.MemberType(tt.node); got != tt.want {
			t.Errorf("MemberType(%q) = %v, want %v", tt.node, got, tt.want)
		}
	}
}

func TestCSharpRefineSymbol(t *testing.T) {
	t.Parallel()

	build := func(owner string) *syntax.Node {
		body := &syntax.Node{Type: "declaration_list"}
		o := &syntax.Node{Type: owner, Parent: body}
		decl := &syntax.Node{Type: "variable_declaration", Parent: o}
		return &syntax.Node{Type: "variable_declarator", Parent: decl}
	}

	tests := []struct {
		owner string
		want  model.SymbolKind
	}{
		{"field_declaration", model.FieldSymbol},
		{"event_field_declaration", model.EventSymbol},
		{"local_declaration_statement", model.LocalSymbol},
	}
	for _, tt := range tests {
		if got := csharpRefineSymbol(build(tt.owner), model.LocalSymbol); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.owner, got, tt.want)
		}
	}

	param := &syntax.Node{Type: "parameter"}
	if got := csharpRefineSymbol(param, model.ParameterSymbol); got != model.ParameterSymbol {
		t.Errorf("parameter refined to %q", got)
	}
}

func TestDeclarationName(t *testing.T) {
	t.Parallel()

	cs := Languages["csharp"]
	named := &syntax.Node{Type: "method_declaration"}
	ret := &syntax.Node{Type: "identifier", Parent: named, Start: 0, End: 3}
	name := &syntax.Node{Type: "identifier", Field: "name", Parent: named, Start: 4, End: 8}
	named.Children = []*syntax.Node{ret, name}
	if got := cs.DeclarationName(named); got != name {
		t.Errorf("DeclarationName picked %+v, want the name field", got)
	}

	declarator := &syntax.Node{Type: "variable_declarator"}
	id := &syntax.Node{Type: "identifier", Parent: declarator}
	declarator.Children = []*syntax.Node{id}
	if got := cs.DeclarationName(declarator); got != id {
		t.Errorf("DeclarationName fallback = %+v", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	if got := CollapseWhitespace("  Public   API \t\n"); got != "Public API" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
}
