// Package refs tracks the references of the symbol under the caret and
// classifies how each occurrence uses it.
package refs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/phobologic/structmargin/internal/analysis"
	"github.com/phobologic/structmargin/internal/pass"
	"github.com/phobologic/structmargin/internal/syntax"
)

// Context is one committed reference search. It is never modified after
// it has been published.
type Context struct {
	Symbol     *analysis.Symbol
	References []analysis.ReferencedSymbol
	// Snapshot is the tree version the references were found in.
	Snapshot *analysis.Snapshot
}

// Locate returns the syntax node covering loc in the context's tree.
func (c *Context) Locate(loc analysis.Location) *syntax.Node {
	if c.Snapshot == nil || c.Snapshot.Root == nil {
		return nil
	}
	return c.Snapshot.Root.FindNode(loc.Span.Start, loc.Span.End())
}

// Finder resolves symbols and searches their references in one document.
// analysis.DocumentFinder implements it.
type Finder interface {
	SymbolAt(ctx context.Context, snap *analysis.Snapshot, pos int) (*analysis.Symbol, error)
	FindReferences(ctx context.Context, snap *analysis.Snapshot, sym *analysis.Symbol) ([]analysis.ReferencedSymbol, error)
}

// Source supplies the current document snapshot.
type Source interface {
	Current() *analysis.Snapshot
}

// Tracker follows the caret and keeps the reference context of the symbol
// under it. Each caret move cancels the search in flight; only the search
// started by the latest move can commit.
type Tracker struct {
	src      Source
	finder   Finder
	logger   *slog.Logger
	onChange func()

	slot   pass.Slot
	active atomic.Pointer[analysis.Symbol]
	ctx    atomic.Pointer[Context]

	caret    atomic.Int64
	hasCaret atomic.Bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the tracker logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithFinder replaces the document finder.
func WithFinder(f Finder) Option {
	return func(t *Tracker) {
		if f != nil {
			t.finder = f
		}
	}
}

// OnChange sets the function called after the committed context changes.
// It runs on the search goroutine.
func OnChange(fn func()) Option {
	return func(t *Tracker) {
		t.onChange = fn
	}
}

// NewTracker creates a tracker reading snapshots from src.
func NewTracker(src Source, opts ...Option) *Tracker {
	t := &Tracker{
		src:      src,
		finder:   analysis.DocumentFinder{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		onChange: func() {},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Context returns the committed reference context, or nil when the caret
// is not on a symbol.
func (t *Tracker) Context() *Context {
	return t.ctx.Load()
}

// CaretMoved starts a search for the symbol at pos and returns a channel
// closed when that search has finished or given up.
func (t *Tracker) CaretMoved(parent context.Context, pos int) <-chan struct{} {
	t.caret.Store(int64(pos))
	t.hasCaret.Store(true)

	ctx, h := t.slot.Renew(parent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer h.Done()
		t.search(ctx, h, pos)
	}()
	return done
}

// Refresh repeats the search at the last caret position, typically after a
// new snapshot has been committed.
func (t *Tracker) Refresh(parent context.Context) <-chan struct{} {
	if !t.hasCaret.Load() {
		done := make(chan struct{})
		close(done)
		return done
	}
	return t.CaretMoved(parent, int(t.caret.Load()))
}

// Stop cancels the search in flight. Its result is never committed.
func (t *Tracker) Stop() {
	t.slot.Cancel()
}

func (t *Tracker) search(ctx context.Context, h *pass.Handle, pos int) {
	snap := t.src.Current()
	if snap == nil {
		return
	}

	sym, err := t.finder.SymbolAt(ctx, snap, pos)
	if err != nil {
		t.fail(err)
		return
	}

	// Only the current search may move the active symbol.
	var prev *analysis.Symbol
	var cleared bool
	current := t.slot.Do(h, func() {
		prev = t.active.Swap(sym)
		if sym == nil {
			cleared = t.ctx.Swap(nil) != nil
		}
	})
	if !current {
		return
	}
	if sym == nil {
		if cleared {
			t.logger.Debug("refs: context cleared")
			t.onChange()
		}
		return
	}
	if prev == sym {
		if c := t.ctx.Load(); c != nil && c.Symbol == sym {
			return
		}
	}

	groups, err := t.finder.FindReferences(ctx, snap, sym)
	if err != nil {
		t.fail(err)
		return
	}
	if ctx.Err() != nil {
		return
	}

	rc := &Context{Symbol: sym, References: groups, Snapshot: snap}
	var stored bool
	t.slot.Do(h, func() {
		if t.active.Load() == sym {
			t.ctx.Store(rc)
			stored = true
		}
	})
	if !stored {
		return
	}
	t.logger.Debug("refs: context committed",
		slog.String("symbol", sym.Name),
		slog.Int64("version", snap.Version),
		slog.Int("groups", len(groups)))
	t.onChange()
}

func (t *Tracker) fail(err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	case errors.Is(err, analysis.ErrStale):
		t.logger.Debug("refs: stale snapshot", slog.String("error", err.Error()))
	default:
		t.logger.Warn("refs: search failed", slog.String("error", err.Error()))
	}
}
