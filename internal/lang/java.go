package lang

import (
	"github.com/smacker/go-tree-sitter/java"

	"github.com/phobologic/structmargin/internal/model"
	"github.com/phobologic/structmargin/internal/syntax"
)

func init() {
	Languages["java"] = &Language{
		Name:       "java",
		Extensions: []string{".java"},
		lang:       java.GetLanguage(),
		Members: map[string]model.CodeMemberType{
			"class_declaration":               model.Class,
			"record_declaration":              model.Class,
			"interface_declaration":           model.Interface,
			"annotation_type_declaration":     model.Interface,
			"enum_declaration":                model.Enum,
			"constructor_declaration":         model.Constructor,
			"compact_constructor_declaration": model.Constructor,
			"method_declaration":              model.Method,
			"field_declaration":               model.Field,
			"constant_declaration":            model.Field,
		},
		Named: map[model.CodeMemberType]bool{
			model.Class:     true,
			model.Interface: true,
			model.Enum:      true,
			model.Method:    true,
		},
		Regions:     map[string]bool{},
		Identifiers: set("identifier", "type_identifier"),
		Declarations: map[string]model.SymbolKind{
			"class_declaration":           model.TypeSymbol,
			"record_declaration":          model.TypeSymbol,
			"interface_declaration":       model.TypeSymbol,
			"annotation_type_declaration": model.TypeSymbol,
			"enum_declaration":            model.TypeSymbol,
			"method_declaration":          model.MethodSymbol,
			"enum_constant":               model.FieldSymbol,
			"variable_declarator":         model.LocalSymbol,
			"formal_parameter":            model.ParameterSymbol,
			"catch_formal_parameter":      model.ParameterSymbol,
		},
		Scopes: set(
			"program", "class_declaration", "record_declaration",
			"interface_declaration", "enum_declaration",
			"method_declaration", "constructor_declaration", "lambda_expression",
			"block", "for_statement", "enhanced_for_statement", "catch_clause",
		),
		Usage: UsageNodes{
			Assignments:  set("assignment_expression"),
			Updates:      set("update_expression"),
			Arguments:    map[string]bool{},
			MemberAccess: set("field_access"),
			Parens:       set("parenthesized_expression"),
			Null:         set("null_literal"),
		},
		RefineSymbol: javaRefineSymbol,
	}
}

var (
	javaDeclaratorOwners = set("field_declaration", "constant_declaration", "local_variable_declaration")
	javaBodies           = set("block", "class_body", "interface_body", "program")
)

func javaRefineSymbol(decl *syntax.Node, kind model.SymbolKind) model.SymbolKind {
	if decl.Type != "variable_declarator" {
		return kind
	}
	owner := enclosing(decl, javaDeclaratorOwners, javaBodies)
	if owner == nil || owner.Type == "local_variable_declaration" {
		return model.LocalSymbol
	}
	return model.FieldSymbol
}
