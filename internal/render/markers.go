package render

import (
	"context"
	"slices"

	"github.com/phobologic/structmargin/internal/config"
	"github.com/phobologic/structmargin/internal/model"
)

const regionLabelX = 5

// drawText is a label candidate. YSpan is the pixel height of the
// declaration it names and decides which of two overlapping labels wins.
type drawText struct {
	Label Label
	At    Point
	YSpan float64
}

func (t drawText) height() float64 { return t.Label.Height() }

// placedLabel is a label the overlap sweep decided to draw.
type placedLabel struct {
	drawText
	Nudged bool
}

// Markers draws the member, type, long-declaration and region layers. A nil
// tree or nil regions draws nothing for that layer. When ctx is cancelled
// drawing stops and the primitives already emitted are left as they are.
func Markers(ctx context.Context, s Surface, tree *model.CodeBlock, regions []model.RegionDirective, g Geometry, st Settings) {
	const memberLayers = config.MemberDeclaration | config.TypeDeclaration |
		config.MethodDeclaration | config.LongMemberDeclaration
	if tree != nil && st.Options.Intersects(memberLayers) {
		drawMembers(ctx, s, tree, g, st)
	}
	if regions != nil && st.Options.Contains(config.RegionDirective) {
		drawRegions(ctx, s, regions, g, st)
	}
}

// memberRun accumulates consecutive sibling members of one kind. A run with
// no parent is empty.
type memberRun struct {
	typ      model.CodeMemberType
	parent   *model.CodeBlock
	level    int
	from, to float64
}

func drawMembers(ctx context.Context, s Surface, tree *model.CodeBlock, g Geometry, st Settings) {
	var (
		run    memberRun
		labels []drawText
		p      = st.Palette
		half   = st.MarkerSize / 2
	)
	flush := func() {
		if run.parent != nil && st.Options.Contains(config.MemberDeclaration) {
			x := float64(run.level)
			s.DrawLine(p.Pen(run.typ), Point{x, run.from}, Point{x, run.to})
		}
		run = memberRun{}
	}

	for node := range tree.Descendants() {
		if ctx.Err() != nil {
			return
		}
		if node.Span.End() > g.Len() {
			continue
		}
		y1, y2 := g.YOf(node.Span.Start), g.YOf(node.Span.End())
		x := float64(node.Level)
		pen := p.Pen(node.Type)

		if node.Type.IsType() {
			flush()
			if st.Options.Contains(config.MemberDeclaration) {
				s.DrawRectangle(pen.Brush.Opaque(), &pen, Rect{x - half, y1 - half, st.MarkerSize, st.MarkerSize})
				s.DrawLine(pen, Point{x, y1}, Point{x, y2})
			}
			if st.Options.Contains(config.TypeDeclaration) && node.Name != "" {
				l := Label{Text: node.Name, Size: st.LabelSize, Brush: pen.Brush, Bold: true, Italic: node.Level != 1}
				labels = append(labels, drawText{Label: l, At: Point{x + 1, y1 - l.Height()/2}, YSpan: y2 - y1})
			}
			continue
		}
		if !node.Type.IsMember() {
			continue
		}

		if node.Type != run.typ || node.Parent != run.parent {
			flush()
			run = memberRun{typ: node.Type, parent: node.Parent, level: node.Level, from: y1}
		}
		run.to = y2

		if st.Options.Contains(config.MethodDeclaration) &&
			(node.Type == model.Method || node.Type == model.Constructor) {
			s.DrawRectangle(pen.Brush.Opaque(), &pen, Rect{x - half, y1 - half, st.MarkerSize, st.MarkerSize})
		}

		if st.Options.Contains(config.LongMemberDeclaration) && node.Span.Length > st.LongSpan {
			if g.LineCount(node.Span.Start, node.Span.End()) >= st.LongLines {
				right := g.Width()
				s.DrawLine(pen, Point{x, y1}, Point{right, y1})
				s.DrawLine(pen, Point{x, y1}, Point{x, y2})
				s.DrawLine(pen, Point{x, y2}, Point{right, y2})
			}
			if h := y2 - y1; h > st.LabelThreshold && node.Name != "" {
				opacity := 0.5
				if g.Height() > 0 {
					opacity += 0.5 * h / g.Height()
				}
				l := Label{Text: node.Name, Size: st.LabelSize, Brush: pen.Brush.WithOpacity(opacity)}
				labels = append(labels, drawText{Label: l, At: Point{x + 2, y1 - l.Height()/2}, YSpan: h})
			}
		}
	}
	flush()

	slices.SortStableFunc(labels, func(a, b drawText) int {
		switch {
		case a.At.Y < b.At.Y:
			return -1
		case a.At.Y > b.At.Y:
			return 1
		}
		return 0
	})
	for _, t := range resolveLabels(labels, st.OverlapRatio, st.NudgeRatio) {
		if ctx.Err() != nil {
			return
		}
		s.DrawText(t.Label, t.At)
	}
}

// resolveLabels sweeps the candidates, sorted by Y, from the bottom up. A
// candidate is drawn when it clears the last drawn label by overlap times
// its height, or when it names a taller declaration than that label. The
// topmost candidate is drawn nudged up by nudge times its height when it
// loses. The bottom candidate is only compared against its neighbour.
func resolveLabels(dt []drawText, overlap, nudge float64) []placedLabel {
	n := len(dt)
	switch n {
	case 0:
		return nil
	case 1:
		return []placedLabel{{drawText: dt[0]}}
	}

	var out []placedLabel
	var prev *drawText
	for i := n - 1; i >= 0; i-- {
		t := &dt[i]
		if prev == nil {
			prev = t
			t = &dt[i-1]
			if t.At.Y+t.height()*overlap < prev.At.Y || prev.YSpan < t.YSpan {
				out = append(out, placedLabel{drawText: *prev})
			}
			continue
		}
		if t.At.Y+t.height()*overlap < prev.At.Y || prev.YSpan < t.YSpan {
			out = append(out, placedLabel{drawText: *t})
			prev = t
		} else if i == 0 {
			nudged := *t
			nudged.At.Y -= t.height() * nudge
			out = append(out, placedLabel{drawText: nudged, Nudged: true})
		}
	}
	return out
}

func drawRegions(ctx context.Context, s Surface, regions []model.RegionDirective, g Geometry, st Settings) {
	p := st.Palette
	for _, r := range regions {
		if ctx.Err() != nil {
			return
		}
		// the buffer shrank since the regions were collected
		if r.Span.End() > g.Len() {
			return
		}
		l := Label{Text: r.Label, Size: st.LabelSize, Brush: p.RegionForeground}
		at := Point{regionLabelX, g.YOf(r.Span.Start) - l.Height()/2}
		if !p.RegionBackground.IsZero() {
			s.DrawRectangle(p.RegionBackground, nil, Rect{at.X, at.Y, l.Width(), l.Height()})
		}
		s.DrawText(l, at)
	}
}
