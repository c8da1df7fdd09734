package refs

import (
	"slices"
	"strings"

	"github.com/phobologic/structmargin/internal/analysis"
	"github.com/phobologic/structmargin/internal/lang"
	"github.com/phobologic/structmargin/internal/syntax"
)

// UsageKind classifies one occurrence of a symbol.
type UsageKind uint8

const (
	Read UsageKind = 1 << iota
	Write
	SetNull
)

// Has reports whether every flag of k2 is set in k.
func (k UsageKind) Has(k2 UsageKind) bool {
	return k&k2 == k2
}

func (k UsageKind) String() string {
	var parts []string
	if k.Has(Read) {
		parts = append(parts, "read")
	}
	if k.Has(Write) {
		parts = append(parts, "write")
	}
	if k.Has(SetNull) {
		parts = append(parts, "null")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// PotentialUsage returns the usage kinds an occurrence of sym can have.
// Only variables, fields, properties and events can be written to.
func PotentialUsage(sym *analysis.Symbol) UsageKind {
	if sym != nil && sym.Kind.Writable() {
		return Read | Write | SetNull
	}
	return Read
}

// Classify returns the usage of the occurrence at node. potential limits
// the result: a symbol that cannot be written is always a Read.
func Classify(l *lang.Language, potential UsageKind, node *syntax.Node) UsageKind {
	if node == nil || !potential.Has(Write) {
		return Read
	}
	u := l.Usage

	// this.x, (x) and ((x)) are written the same way as x
	for node.Parent != nil {
		p := node.Parent
		if u.Parens[p.Type] || (u.MemberAccess[p.Type] && accessedMember(p) == node) {
			node = p
			continue
		}
		break
	}

	parent := node.Parent
	if parent == nil {
		return Read
	}
	switch {
	case u.Assignments[parent.Type]:
		if assignmentSide(parent, "left", 0) != node {
			return Read
		}
		if right := assignmentSide(parent, "right", -1); right != nil && u.Null[right.Type] && potential.Has(SetNull) {
			return Write | SetNull
		}
		return Write
	case u.Updates[parent.Type]:
		// prefix_unary_expression also covers !x and -x
		for _, c := range parent.Children {
			if c.Type == "++" || c.Type == "--" {
				return Write
			}
		}
	case u.Arguments[parent.Type]:
		for _, c := range parent.Children {
			if slices.Contains(u.WriteModes, c.Type) {
				return Write
			}
		}
	}
	return Read
}

// accessedMember returns the member named by a member access: its name
// field, or its last named child.
func accessedMember(access *syntax.Node) *syntax.Node {
	for _, field := range []string{"name", "field"} {
		if n := access.ChildByField(field); n != nil {
			return n
		}
	}
	named := access.NamedChildren()
	if len(named) == 0 {
		return nil
	}
	return named[len(named)-1]
}

// assignmentSide returns the named field of an assignment, falling back to
// the named child at index (negative counts from the end).
func assignmentSide(assign *syntax.Node, field string, index int) *syntax.Node {
	if n := assign.ChildByField(field); n != nil {
		return n
	}
	named := assign.NamedChildren()
	if index < 0 {
		index += len(named)
	}
	if index < 0 || index >= len(named) {
		return nil
	}
	return named[index]
}
