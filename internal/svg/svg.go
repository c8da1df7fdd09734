// Package svg encodes recorded margin primitives as an SVG document.
package svg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phobologic/structmargin/internal/render"
)

var escaper = strings.NewReplacer(
	`&`, "&amp;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
	`'`, "&apos;",
)

// Encode renders the recorded primitives into an SVG document of the given
// size. title, when not empty, becomes the document title.
func Encode(rec *render.Recorder, width, height float64, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		num(width), num(height), num(width), num(height))
	if title != "" {
		fmt.Fprintf(&b, "\n  <title>%s</title>", escape(title))
	}
	for _, p := range rec.Prims {
		b.WriteString("\n  ")
		b.WriteString(element(p))
	}
	b.WriteString("\n</svg>\n")
	return b.String()
}

func element(p render.Primitive) string {
	switch p.Op {
	case render.OpLine:
		return fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" %s/>`,
			num(p.From.X), num(p.From.Y), num(p.To.X), num(p.To.Y), stroke(p.Pen))
	case render.OpRectangle:
		return fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" %s %s/>`,
			num(p.Rect.X), num(p.Rect.Y), num(p.Rect.W), num(p.Rect.H), fill(p.Fill), stroke(p.Pen))
	case render.OpText:
		l := p.Label
		var style []string
		if l.Bold {
			style = append(style, `font-weight="bold"`)
		}
		if l.Italic {
			style = append(style, `font-style="italic"`)
		}
		attrs := strings.Join(append([]string{fill(l.Brush)}, style...), " ")
		// SVG anchors text at the baseline, the label at its top
		return fmt.Sprintf(`<text x="%s" y="%s" font-size="%s" dominant-baseline="hanging" %s>%s</text>`,
			num(p.From.X), num(p.From.Y), num(l.Size), attrs, escape(l.Text))
	}
	return fmt.Sprintf("<!-- unknown op %d -->", p.Op)
}

func fill(b render.Brush) string {
	if b.IsZero() {
		return `fill="none"`
	}
	return fmt.Sprintf(`fill="%s"%s`, hex(b), opacity("fill-opacity", b))
}

func stroke(p *render.Pen) string {
	if p == nil {
		return `stroke="none"`
	}
	return fmt.Sprintf(`stroke="%s" stroke-width="%s"%s`, hex(p.Brush), num(p.Thickness), opacity("stroke-opacity", p.Brush))
}

func hex(b render.Brush) string {
	c := b.Color
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func opacity(attr string, b render.Brush) string {
	if b.Color.A == 0xff {
		return ""
	}
	return fmt.Sprintf(` %s="%s"`, attr, num(float64(b.Color.A)/0xff))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func escape(s string) string {
	return escaper.Replace(s)
}
