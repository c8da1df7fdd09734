// Package syntax holds an immutable copy of a tree-sitter parse tree.
//
// tree-sitter nodes are cached per tree in a map that is not safe for
// concurrent use, so each parse is converted once into plain Go nodes that
// background passes and the renderer can share freely.
package syntax

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// Node is one syntax node. Nodes are never modified after FromTree returns.
type Node struct {
	Type     string
	Field    string // field name in the parent, "" if none
	Start    int
	End      int
	Named    bool
	Parent   *Node
	Children []*Node
}

// FromTree copies the tree rooted at root. ctx is polled once per node.
func FromTree(ctx context.Context, root *sitter.Node) (*Node, error) {
	if root == nil {
		return nil, nil
	}

	type frame struct {
		src *sitter.Node
		dst *Node
	}

	top := convert(root, nil, "")
	stack := []frame{{root, top}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		count := int(f.src.ChildCount())
		if count == 0 {
			continue
		}
		f.dst.Children = make([]*Node, 0, count)
		for i := 0; i < count; i++ {
			child := f.src.Child(i)
			if child == nil {
				continue
			}
			n := convert(child, f.dst, f.src.FieldNameForChild(i))
			f.dst.Children = append(f.dst.Children, n)
			stack = append(stack, frame{child, n})
		}
	}
	return top, nil
}

func convert(n *sitter.Node, parent *Node, field string) *Node {
	return &Node{
		Type:   n.Type(),
		Field:  field,
		Start:  int(n.StartByte()),
		End:    int(n.EndByte()),
		Named:  n.IsNamed(),
		Parent: parent,
	}
}

// Text returns the source text covered by n.
func (n *Node) Text(source []byte) string {
	if n == nil || n.End > len(source) || n.Start > n.End {
		return ""
	}
	return string(source[n.Start:n.End])
}

// ChildByField returns the first child recorded under the given field name.
func (n *Node) ChildByField(name string) *Node {
	for _, c := range n.Children {
		if c.Field == name {
			return c
		}
	}
	return nil
}

// FirstChildOfType returns the first direct child whose type is in types.
func (n *Node) FirstChildOfType(types ...string) *Node {
	for _, c := range n.Children {
		for _, t := range types {
			if c.Type == t {
				return c
			}
		}
	}
	return nil
}

// NamedChildren returns the named children of n.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Named {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of bytes covered by n.
func (n *Node) Len() int {
	return n.End - n.Start
}

// FindNode returns the smallest node covering [start, end).
func (n *Node) FindNode(start, end int) *Node {
	if n == nil || start < n.Start || end > n.End {
		return nil
	}
	cur := n
	for {
		next := (*Node)(nil)
		for _, c := range cur.Children {
			if c.Start <= start && end <= c.End && c.Len() > 0 {
				next = c
				break
			}
		}
		if next == nil {
			return cur
		}
		cur = next
	}
}

// Walk visits every node below and including n in source order.
// It stops early when visit returns false or ctx is cancelled.
func (n *Node) Walk(ctx context.Context, visit func(*Node) bool) error {
	if n == nil {
		return nil
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(cur) {
			return nil
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return nil
}
