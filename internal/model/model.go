// Package model defines core data structures for structmargin.
package model

import (
	"fmt"
	"iter"
	"strings"
)

// CodeMemberType classifies a declaration. The order matters: type-like kinds
// sit between Root and Member, leaf members between Member and Other.
type CodeMemberType int

const (
	Root CodeMemberType = iota
	Class
	Interface
	Struct
	Enum
	Delegate
	Member
	Constructor
	Property
	Method
	Field
	Event
	Other
	Unknown
)

var memberTypeNames = [...]string{
	Root:        "root",
	Class:       "class",
	Interface:   "interface",
	Struct:      "struct",
	Enum:        "enum",
	Delegate:    "delegate",
	Member:      "member",
	Constructor: "constructor",
	Property:    "property",
	Method:      "method",
	Field:       "field",
	Event:       "event",
	Other:       "other",
	Unknown:     "unknown",
}

func (t CodeMemberType) String() string {
	if t < 0 || int(t) >= len(memberTypeNames) {
		return fmt.Sprintf("CodeMemberType(%d)", int(t))
	}
	return memberTypeNames[t]
}

// IsType reports whether t is a type-like declaration.
func (t CodeMemberType) IsType() bool {
	return t > Root && t < Member
}

// IsMember reports whether t is a leaf member declaration.
func (t CodeMemberType) IsMember() bool {
	return t > Member && t < Other
}

// Span is a half-open range of buffer offsets.
type Span struct {
	Start  int
	Length int
}

// End returns the offset just past the span.
func (s Span) End() int {
	return s.Start + s.Length
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return o.Start >= s.Start && o.End() <= s.End()
}

func (s Span) String() string {
	return fmt.Sprintf("[%d..%d)", s.Start, s.End())
}

// CodeBlock is one declaration node of the structure model.
// Parent is a query-only back link; children are owned by their parent.
type CodeBlock struct {
	Parent   *CodeBlock
	Children []*CodeBlock
	Type     CodeMemberType
	Name     string
	Span     Span
	Level    int
}

// NewCodeBlock creates a block and appends it to parent's children.
func NewCodeBlock(parent *CodeBlock, typ CodeMemberType, name string, span Span, level int) *CodeBlock {
	b := &CodeBlock{
		Parent: parent,
		Type:   typ,
		Name:   name,
		Span:   span,
		Level:  level,
	}
	if parent != nil {
		parent.Children = append(parent.Children, b)
	}
	return b
}

// Descendants returns the pre-order sequence of all blocks below b.
// Each call to the returned sequence starts a fresh traversal.
func (b *CodeBlock) Descendants() iter.Seq[*CodeBlock] {
	return func(yield func(*CodeBlock) bool) {
		if b == nil {
			return
		}
		stack := make([]*CodeBlock, 0, len(b.Children))
		for i := len(b.Children) - 1; i >= 0; i-- {
			stack = append(stack, b.Children[i])
		}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(n) {
				return
			}
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, n.Children[i])
			}
		}
	}
}

func (b *CodeBlock) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat(".", b.Level))
	sb.WriteString(b.Type.String())
	if b.Name != "" {
		sb.WriteString(" ")
		sb.WriteString(b.Name)
	}
	sb.WriteString(" ")
	sb.WriteString(b.Span.String())
	return sb.String()
}

// RegionDirective is a region start marker and its label.
type RegionDirective struct {
	Span  Span
	Label string
}

// SymbolKind indicates the kind of a declared symbol.
type SymbolKind string

const (
	TypeSymbol      SymbolKind = "type"
	MethodSymbol    SymbolKind = "method"
	PropertySymbol  SymbolKind = "property"
	FieldSymbol     SymbolKind = "field"
	EventSymbol     SymbolKind = "event"
	LocalSymbol     SymbolKind = "local"
	ParameterSymbol SymbolKind = "parameter"
)

// Writable reports whether symbols of this kind can be assigned.
func (k SymbolKind) Writable() bool {
	switch k {
	case PropertySymbol, FieldSymbol, EventSymbol, LocalSymbol, ParameterSymbol:
		return true
	}
	return false
}
