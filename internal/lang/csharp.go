package lang

import (
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/phobologic/structmargin/internal/model"
	"github.com/phobologic/structmargin/internal/syntax"
)

func init() {
	Languages["csharp"] = &Language{
		Name:       "csharp",
		Extensions: []string{".cs"},
		lang:       csharp.GetLanguage(),
		Members: map[string]model.CodeMemberType{
			"class_declaration":               model.Class,
			"record_declaration":              model.Class,
			"record_struct_declaration":       model.Class,
			"interface_declaration":           model.Interface,
			"struct_declaration":              model.Struct,
			"enum_declaration":                model.Enum,
			"delegate_declaration":            model.Delegate,
			"constructor_declaration":         model.Constructor,
			"destructor_declaration":          model.Constructor,
			"method_declaration":              model.Method,
			"operator_declaration":            model.Method,
			"conversion_operator_declaration": model.Method,
			"indexer_declaration":             model.Property,
			"property_declaration":            model.Property,
			"field_declaration":               model.Field,
			"event_declaration":               model.Event,
			"event_field_declaration":         model.Event,
		},
		Named: map[model.CodeMemberType]bool{
			model.Class:     true,
			model.Interface: true,
			model.Struct:    true,
			model.Enum:      true,
			model.Method:    true,
		},
		// Older grammars emit region_directive, newer ones preproc_region.
		Regions:     set("region_directive", "preproc_region"),
		Identifiers: set("identifier"),
		Declarations: map[string]model.SymbolKind{
			"class_declaration":         model.TypeSymbol,
			"record_declaration":        model.TypeSymbol,
			"record_struct_declaration": model.TypeSymbol,
			"interface_declaration":     model.TypeSymbol,
			"struct_declaration":        model.TypeSymbol,
			"enum_declaration":          model.TypeSymbol,
			"delegate_declaration":      model.TypeSymbol,
			"method_declaration":        model.MethodSymbol,
			"local_function_statement":  model.MethodSymbol,
			"property_declaration":      model.PropertySymbol,
			"event_declaration":         model.EventSymbol,
			"enum_member_declaration":   model.FieldSymbol,
			"variable_declarator":       model.LocalSymbol,
			"parameter":                 model.ParameterSymbol,
		},
		Scopes: set(
			"compilation_unit", "namespace_declaration",
			"class_declaration", "record_declaration", "record_struct_declaration",
			"interface_declaration", "struct_declaration", "enum_declaration",
			"method_declaration", "constructor_declaration", "destructor_declaration",
			"operator_declaration", "conversion_operator_declaration",
			"local_function_statement", "lambda_expression", "anonymous_method_expression",
			"accessor_declaration", "block", "for_statement", "for_each_statement",
			"foreach_statement", "using_statement", "catch_clause",
		),
		Usage: UsageNodes{
			Assignments:  set("assignment_expression"),
			Updates:      set("prefix_unary_expression", "postfix_unary_expression"),
			Arguments:    set("argument"),
			MemberAccess: set("member_access_expression"),
			Parens:       set("parenthesized_expression"),
			Null:         set("null_literal"),
			WriteModes:   []string{"ref", "out"},
		},
		RefineSymbol: csharpRefineSymbol,
	}
}

var (
	csharpDeclaratorOwners = set("field_declaration", "event_field_declaration", "local_declaration_statement")
	csharpBodies           = set("block", "declaration_list", "compilation_unit")
)

// csharpRefineSymbol tells fields and events apart from locals: all three
// are declared through a variable_declarator.
func csharpRefineSymbol(decl *syntax.Node, kind model.SymbolKind) model.SymbolKind {
	if decl.Type != "variable_declarator" {
		return kind
	}
	owner := enclosing(decl, csharpDeclaratorOwners, csharpBodies)
	if owner == nil {
		return kind
	}
	switch owner.Type {
	case "field_declaration":
		return model.FieldSymbol
	case "event_field_declaration":
		return model.EventSymbol
	}
	return model.LocalSymbol
}
