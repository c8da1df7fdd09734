package analysis

import (
	"context"

	"github.com/phobologic/structmargin/internal/model"
	"github.com/phobologic/structmargin/internal/syntax"
)

// Symbol is a declared name. Symbols are unique per snapshot, so two
// resolutions against the same snapshot return the same pointer.
type Symbol struct {
	Name         string
	Kind         model.SymbolKind
	Declarations []Declaration

	snap *Snapshot
}

// Snapshot returns the snapshot the symbol was resolved in.
func (s *Symbol) Snapshot() *Snapshot {
	return s.snap
}

// Declaration is one declaring location of a symbol.
type Declaration struct {
	Span     model.Span
	Snapshot *Snapshot
}

// Location is one reference to a symbol.
type Location struct {
	Span model.Span
}

// ReferencedSymbol groups the references found for one definition.
type ReferencedSymbol struct {
	Definition *Symbol
	Locations  []Location
}

type scopeKey struct {
	scope *syntax.Node
	name  string
}

type symbolIndex struct {
	decls  map[*syntax.Node]*Symbol // declaring identifier -> symbol
	scoped map[scopeKey]*Symbol
	byName map[string]*Symbol
	idents []*syntax.Node
}

// symbols builds the snapshot's symbol index on first use.
func (s *Snapshot) symbols(ctx context.Context) (*symbolIndex, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if s.index != nil {
		return s.index, nil
	}
	idx, err := buildIndex(ctx, s)
	if err != nil {
		return nil, err
	}
	s.index = idx
	return idx, nil
}

func buildIndex(ctx context.Context, snap *Snapshot) (*symbolIndex, error) {
	l := snap.Lang
	idx := &symbolIndex{
		decls:  make(map[*syntax.Node]*Symbol),
		scoped: make(map[scopeKey]*Symbol),
		byName: make(map[string]*Symbol),
	}

	err := snap.Root.Walk(ctx, func(n *syntax.Node) bool {
		if l.Identifiers[n.Type] {
			idx.idents = append(idx.idents, n)
		}
		kind, ok := l.Declarations[n.Type]
		if !ok {
			return true
		}
		nameNode := l.DeclarationName(n)
		if nameNode == nil || !l.Identifiers[nameNode.Type] {
			return true
		}
		if l.RefineSymbol != nil {
			kind = l.RefineSymbol(n, kind)
		}
		name := snap.Text(nameNode)
		key := scopeKey{scope: scopeOf(snap, n), name: name}
		sym := idx.scoped[key]
		if sym == nil {
			sym = &Symbol{Name: name, Kind: kind, snap: snap}
			idx.scoped[key] = sym
			if idx.byName[name] == nil {
				idx.byName[name] = sym
			}
		}
		sym.Declarations = append(sym.Declarations, Declaration{Span: SpanOf(n), Snapshot: snap})
		idx.decls[nameNode] = sym
		return true
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// scopeOf returns the scope a declaration binds its name in: the nearest
// enclosing scope node above it, or the root.
func scopeOf(snap *Snapshot, decl *syntax.Node) *syntax.Node {
	for p := decl.Parent; p != nil; p = p.Parent {
		if snap.Lang.Scopes[p.Type] || p.Parent == nil {
			return p
		}
	}
	return decl
}

// resolve binds an identifier to a symbol: its own declaration, the nearest
// enclosing scope declaring the name, or any declaration of that name.
func (idx *symbolIndex) resolve(snap *Snapshot, ident *syntax.Node) *Symbol {
	if sym := idx.decls[ident]; sym != nil {
		return sym
	}
	name := snap.Text(ident)
	for p := ident.Parent; p != nil; p = p.Parent {
		if !snap.Lang.Scopes[p.Type] && p.Parent != nil {
			continue
		}
		if sym := idx.scoped[scopeKey{scope: p, name: name}]; sym != nil {
			return sym
		}
	}
	return idx.byName[name]
}

// IdentifierAt returns the identifier under or just before pos.
func (s *Snapshot) IdentifierAt(pos int) *syntax.Node {
	for _, r := range [][2]int{{pos, pos + 1}, {pos - 1, pos}} {
		if r[0] < 0 {
			continue
		}
		n := s.Root.FindNode(r[0], r[1])
		if n != nil && s.Lang.Identifiers[n.Type] {
			return n
		}
	}
	return nil
}

// DocumentFinder resolves symbols and searches references within a single
// snapshot.
type DocumentFinder struct{}

// SymbolAt resolves the symbol at pos, or returns nil when pos is not on a
// name that binds to a declaration in the document.
func (DocumentFinder) SymbolAt(ctx context.Context, snap *Snapshot, pos int) (*Symbol, error) {
	if snap == nil || snap.Root == nil {
		return nil, nil
	}
	ident := snap.IdentifierAt(pos)
	if ident == nil {
		return nil, nil
	}
	idx, err := snap.symbols(ctx)
	if err != nil {
		return nil, err
	}
	return idx.resolve(snap, ident), nil
}

// FindReferences returns every non-declaring occurrence of sym in snap.
func (DocumentFinder) FindReferences(ctx context.Context, snap *Snapshot, sym *Symbol) ([]ReferencedSymbol, error) {
	if sym == nil {
		return nil, nil
	}
	if sym.snap != snap {
		return nil, ErrStale
	}
	idx, err := snap.symbols(ctx)
	if err != nil {
		return nil, err
	}

	var locs []Location
	for _, ident := range idx.idents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if idx.decls[ident] != nil {
			continue
		}
		if idx.resolve(snap, ident) == sym {
			locs = append(locs, Location{Span: SpanOf(ident)})
		}
	}
	return []ReferencedSymbol{{Definition: sym, Locations: locs}}, nil
}
