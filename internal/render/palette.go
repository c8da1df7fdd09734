package render

import (
	"github.com/phobologic/structmargin/internal/model"
	"github.com/phobologic/structmargin/internal/refs"
)

// Palette names the pens and brushes the margin draws with.
type Palette struct {
	Members map[model.CodeMemberType]Pen

	RegionForeground Brush
	// RegionBackground is drawn behind region labels unless it is zero.
	RegionBackground Brush

	Reference  Brush
	Write      Brush
	SetNull    Pen
	Definition Pen
}

var fallbackPen = Pen{Brush: RGB(0x80, 0x80, 0x80), Thickness: 1}

// DefaultPalette returns the built-in palette.
func DefaultPalette() *Palette {
	pen := func(r, g, b uint8) Pen { return Pen{Brush: RGB(r, g, b), Thickness: 1} }
	return &Palette{
		Members: map[model.CodeMemberType]Pen{
			model.Class:       pen(0x1e, 0x64, 0xe6),
			model.Interface:   pen(0x00, 0xbf, 0xff),
			model.Struct:      pen(0x00, 0x80, 0x80),
			model.Enum:        pen(0x80, 0x00, 0x80),
			model.Delegate:    pen(0xb8, 0x86, 0x0b),
			model.Constructor: pen(0xa5, 0x2a, 0x2a),
			model.Property:    pen(0xda, 0xa5, 0x20),
			model.Method:      pen(0x2e, 0x8b, 0x57),
			model.Field:       pen(0x5f, 0x9e, 0xa0),
			model.Event:       pen(0xff, 0x8c, 0x00),
		},
		RegionForeground: RGB(0x69, 0x69, 0x69),
		RegionBackground: RGB(0xf0, 0xf0, 0xf0).WithOpacity(0.8),
		Reference:        RGB(0x00, 0xce, 0xd1),
		Write:            RGB(0xdc, 0x14, 0x3c),
		SetNull:          Pen{Brush: RGB(0x8b, 0x00, 0x00), Thickness: 1},
		Definition:       Pen{Brush: RGB(0x00, 0x00, 0x80), Thickness: 1},
	}
}

// Pen returns the pen of a member kind, or a gray pen for unknown kinds.
func (p *Palette) Pen(t model.CodeMemberType) Pen {
	if pen, ok := p.Members[t]; ok {
		return pen
	}
	return fallbackPen
}

// usageMarker maps a usage classification to the fill and outline of its
// reference marker.
func (p *Palette) usageMarker(kind refs.UsageKind) (Brush, *Pen) {
	switch {
	case kind.Has(refs.Write | refs.SetNull):
		return p.Write, &p.SetNull
	case kind.Has(refs.Write):
		return p.Write, nil
	default:
		return p.Reference, nil
	}
}
