// Package structure derives the declaration model and region markers of a
// parsed document.
package structure

import (
	"context"
	"strings"

	"github.com/phobologic/structmargin/internal/lang"
	"github.com/phobologic/structmargin/internal/model"
	"github.com/phobologic/structmargin/internal/syntax"
)

// Build walks the syntax tree into a CodeBlock hierarchy rooted at a Root
// block spanning the whole source. If ctx is cancelled during the walk, Build
// returns nil and the context error; a partial tree is never returned.
func Build(ctx context.Context, root *syntax.Node, l *lang.Language, source []byte) (*model.CodeBlock, error) {
	top := model.NewCodeBlock(nil, model.Root, "", model.Span{Start: 0, Length: len(source)}, 0)
	if root == nil {
		return top, nil
	}
	b := builder{lang: l, source: source}
	if err := b.walk(ctx, root, top, 0); err != nil {
		return nil, err
	}
	return top, nil
}

type builder struct {
	lang   *lang.Language
	source []byte
}

func (b *builder) walk(ctx context.Context, node *syntax.Node, parent *model.CodeBlock, level int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, child := range node.Children {
		if !child.Named {
			continue
		}
		typ := b.lang.MemberType(child.Type)
		if typ == model.Unknown {
			// namespaces, bodies and statements are not kept
			if err := b.walk(ctx, child, parent, level); err != nil {
				return err
			}
			continue
		}

		block := model.NewCodeBlock(parent, typ, b.name(child, typ), model.Span{Start: child.Start, Length: child.Len()}, level+1)
		if typ.IsMember() {
			continue
		}
		if err := b.walk(ctx, child, block, level+1); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) name(node *syntax.Node, typ model.CodeMemberType) string {
	if !b.lang.Named[typ] {
		return ""
	}
	if n := node.ChildByField("name"); n != nil {
		return n.Text(b.source)
	}
	return ""
}

// CollectRegions returns the region start directives of the document in
// source order.
func CollectRegions(ctx context.Context, root *syntax.Node, l *lang.Language, source []byte) ([]model.RegionDirective, error) {
	regions := []model.RegionDirective{}
	if root == nil || len(l.Regions) == 0 {
		return regions, nil
	}
	err := root.Walk(ctx, func(n *syntax.Node) bool {
		if l.Regions[n.Type] {
			regions = append(regions, model.RegionDirective{
				Span:  model.Span{Start: n.Start, Length: n.Len()},
				Label: regionLabel(n.Text(source)),
			})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return regions, nil
}

// regionLabel extracts the text following "#region" on the directive line.
func regionLabel(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "#")
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "region")
	return lang.CollapseWhitespace(text)
}
