// Package render turns the committed structure model and reference context
// into draw primitives for the margin strip.
package render

import (
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"
)

// Brush fills an area. The zero Brush draws nothing.
type Brush struct {
	Color color.NRGBA
}

// RGB returns an opaque brush.
func RGB(r, g, b uint8) Brush {
	return Brush{Color: color.NRGBA{R: r, G: g, B: b, A: 0xff}}
}

// IsZero reports whether the brush is unset.
func (b Brush) IsZero() bool {
	return b.Color == color.NRGBA{}
}

// WithOpacity returns the brush with its alpha scaled by opacity in [0, 1].
func (b Brush) WithOpacity(opacity float64) Brush {
	opacity = min(max(opacity, 0), 1)
	b.Color.A = uint8(float64(b.Color.A)*opacity + 0.5)
	return b
}

// Opaque returns the brush with full alpha.
func (b Brush) Opaque() Brush {
	b.Color.A = 0xff
	return b
}

func (b Brush) String() string {
	c := b.Color
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// Pen strokes lines and outlines.
type Pen struct {
	Brush     Brush
	Thickness float64
}

// Point is a position on the strip in pixels.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Label is formatted text.
type Label struct {
	Text   string
	Size   float64
	Brush  Brush
	Bold   bool
	Italic bool
}

// Height returns the line height of the label.
func (l Label) Height() float64 {
	return l.Size * 1.25
}

// Width returns an estimate of the rendered width of the label.
func (l Label) Width() float64 {
	w := float64(utf8.RuneCountInString(l.Text)) * l.Size * 0.6
	if l.Bold {
		w *= 1.1
	}
	return w
}

// Surface receives draw primitives. A fresh surface is supplied to every
// render call.
type Surface interface {
	DrawLine(pen Pen, from, to Point)
	// DrawRectangle fills r with fill unless it is zero, then outlines it
	// with pen unless it is nil.
	DrawRectangle(fill Brush, pen *Pen, r Rect)
	DrawText(label Label, at Point)
}

// Op is the kind of a recorded primitive.
type Op uint8

const (
	OpLine Op = iota
	OpRectangle
	OpText
)

// Primitive is one recorded draw call.
type Primitive struct {
	Op    Op
	Pen   *Pen
	Fill  Brush
	From  Point
	To    Point
	Rect  Rect
	Label Label
}

func (p Primitive) String() string {
	switch p.Op {
	case OpLine:
		return fmt.Sprintf("line %s %.4g (%.4g,%.4g)-(%.4g,%.4g)",
			p.Pen.Brush, p.Pen.Thickness, p.From.X, p.From.Y, p.To.X, p.To.Y)
	case OpRectangle:
		pen := "-"
		if p.Pen != nil {
			pen = fmt.Sprintf("%s %.4g", p.Pen.Brush, p.Pen.Thickness)
		}
		fill := "-"
		if !p.Fill.IsZero() {
			fill = p.Fill.String()
		}
		return fmt.Sprintf("rect %s %s (%.4g,%.4g %.4gx%.4g)", fill, pen, p.Rect.X, p.Rect.Y, p.Rect.W, p.Rect.H)
	case OpText:
		style := ""
		if p.Label.Bold {
			style += "b"
		}
		if p.Label.Italic {
			style += "i"
		}
		return fmt.Sprintf("text %q %s %.4g%s (%.4g,%.4g)",
			p.Label.Text, p.Label.Brush, p.Label.Size, style, p.From.X, p.From.Y)
	}
	return fmt.Sprintf("op(%d)", p.Op)
}

// Recorder is a Surface that records every primitive in call order.
type Recorder struct {
	Prims []Primitive
}

func (r *Recorder) DrawLine(pen Pen, from, to Point) {
	r.Prims = append(r.Prims, Primitive{Op: OpLine, Pen: &pen, From: from, To: to})
}

func (r *Recorder) DrawRectangle(fill Brush, pen *Pen, rect Rect) {
	var p *Pen
	if pen != nil {
		cp := *pen
		p = &cp
	}
	r.Prims = append(r.Prims, Primitive{Op: OpRectangle, Pen: p, Fill: fill, Rect: rect})
}

func (r *Recorder) DrawText(label Label, at Point) {
	r.Prims = append(r.Prims, Primitive{Op: OpText, Label: label, From: at})
}

// Replay draws the recorded primitives onto s.
func (r *Recorder) Replay(s Surface) {
	for _, p := range r.Prims {
		switch p.Op {
		case OpLine:
			s.DrawLine(*p.Pen, p.From, p.To)
		case OpRectangle:
			s.DrawRectangle(p.Fill, p.Pen, p.Rect)
		case OpText:
			s.DrawText(p.Label, p.From)
		}
	}
}

// String returns one line per primitive.
func (r *Recorder) String() string {
	var b strings.Builder
	for _, p := range r.Prims {
		b.WriteString(p.String())
		b.WriteByte('\n')
	}
	return b.String()
}
