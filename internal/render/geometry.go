package render

import (
	"github.com/phobologic/structmargin/internal/config"
)

// Geometry maps buffer positions onto the strip.
type Geometry interface {
	YOf(pos int) float64
	LineCount(start, end int) int
	Width() float64
	Height() float64
	// Len is the live buffer length; spans past it are out of range.
	Len() int
}

// Document is the line index a Strip is laid out from.
// *analysis.Snapshot implements it.
type Document interface {
	Len() int
	Lines() int
	LineOf(pos int) int
	LineCount(start, end int) int
}

// Strip lays a document out proportionally by line over a fixed height,
// the way a scrollbar maps the whole buffer onto its track.
type Strip struct {
	doc           Document
	width, height float64
}

// NewStrip returns a strip of the given size for doc.
func NewStrip(doc Document, width, height float64) *Strip {
	return &Strip{doc: doc, width: width, height: height}
}

func (s *Strip) YOf(pos int) float64 {
	lines := s.doc.Lines()
	if lines == 0 {
		return 0
	}
	return s.height * float64(s.doc.LineOf(pos)) / float64(lines)
}

func (s *Strip) LineCount(start, end int) int { return s.doc.LineCount(start, end) }
func (s *Strip) Width() float64               { return s.width }
func (s *Strip) Height() float64              { return s.height }
func (s *Strip) Len() int                     { return s.doc.Len() }

// Settings is what a render call reads from the configuration.
type Settings struct {
	Options config.MarkerOptions
	config.RenderConfig
	Palette *Palette
}

// NewSettings builds render settings from cfg. A nil palette selects the
// default one.
func NewSettings(cfg *config.Config, p *Palette) Settings {
	if p == nil {
		p = DefaultPalette()
	}
	return Settings{Options: cfg.Markers, RenderConfig: cfg.Render, Palette: p}
}
