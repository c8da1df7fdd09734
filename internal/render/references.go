package render

import (
	"context"

	"github.com/phobologic/structmargin/internal/analysis"
	"github.com/phobologic/structmargin/internal/config"
	"github.com/phobologic/structmargin/internal/refs"
)

// References draws one marker per reference in rc, colored by how the
// occurrence uses the symbol, and a definition marker for each declaration
// in the same snapshot. A nil rc draws nothing.
func References(ctx context.Context, s Surface, rc *refs.Context, g Geometry, st Settings) {
	if rc == nil || rc.Snapshot == nil || !st.Options.Contains(config.SymbolReference) {
		return
	}
	p := st.Palette
	size := st.MarkerSize
	half := size / 2

	potentials := make(map[*analysis.Symbol]refs.UsageKind)
	for _, group := range rc.References {
		potential, ok := potentials[group.Definition]
		if !ok {
			potential = refs.PotentialUsage(group.Definition)
			potentials[group.Definition] = potential
		}
		for _, loc := range group.Locations {
			if ctx.Err() != nil {
				return
			}
			if loc.Span.End() > g.Len() {
				continue
			}
			kind := refs.Classify(rc.Snapshot.Lang, potential, rc.Locate(loc))
			fill, pen := p.usageMarker(kind)
			y := g.YOf(loc.Span.Start)
			s.DrawRectangle(fill, pen, Rect{1, y - half, size, size})
		}
	}

	if rc.Symbol == nil {
		return
	}
	for _, decl := range rc.Symbol.Declarations {
		if ctx.Err() != nil {
			return
		}
		if decl.Snapshot != rc.Snapshot || decl.Span.Start >= g.Len() {
			continue
		}
		y := g.YOf(decl.Span.Start)
		s.DrawRectangle(p.Reference, &p.Definition, Rect{0, y - half, size + 1, size + 1})
	}
}
