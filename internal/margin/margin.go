// Package margin keeps the structure model and reference context of one
// document current and draws them on demand.
package margin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phobologic/structmargin/internal/analysis"
	"github.com/phobologic/structmargin/internal/config"
	"github.com/phobologic/structmargin/internal/model"
	"github.com/phobologic/structmargin/internal/pass"
	"github.com/phobologic/structmargin/internal/refs"
	"github.com/phobologic/structmargin/internal/render"
	"github.com/phobologic/structmargin/internal/structure"
)

// ErrClosed is returned by operations on a closed Margin.
var ErrClosed = errors.New("margin: closed")

const memberLayers = config.MemberDeclaration | config.TypeDeclaration |
	config.MethodDeclaration | config.LongMemberDeclaration

// StateSource supplies parsed snapshots of the document.
// *analysis.Service implements it.
type StateSource interface {
	Current() *analysis.Snapshot
	Subscribe(fn func(*analysis.Snapshot)) (unsubscribe func())
}

// Model is one committed structure pass.
type Model struct {
	Tree    *model.CodeBlock
	Regions []model.RegionDirective
	// Snapshot is the document version the model was built from.
	Snapshot *analysis.Snapshot
}

// Margin owns the background passes of one document view.
type Margin struct {
	src        StateSource
	cfg        *config.Config
	settings   render.Settings
	palette    *render.Palette
	logger     *slog.Logger
	invalidate func()
	finder     refs.Finder
	tracker    *refs.Tracker

	lifetime    context.Context
	stop        context.CancelFunc
	closed      atomic.Bool
	unsubscribe func()

	slot    pass.Slot
	timerMu sync.Mutex
	timer   *time.Timer
	model   atomic.Pointer[Model]
}

// Option configures a Margin.
type Option func(*Margin)

// WithLogger sets the margin logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Margin) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPalette sets the pens and brushes.
func WithPalette(p *render.Palette) Option {
	return func(m *Margin) {
		m.palette = p
	}
}

// WithInvalidate sets the function called when the margin needs a redraw.
// It is called from background goroutines.
func WithInvalidate(fn func()) Option {
	return func(m *Margin) {
		if fn != nil {
			m.invalidate = fn
		}
	}
}

// WithFinder replaces the reference finder.
func WithFinder(f refs.Finder) Option {
	return func(m *Margin) {
		m.finder = f
	}
}

// New creates a margin following src. A nil cfg selects the defaults.
func New(src StateSource, cfg *config.Config, opts ...Option) *Margin {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	m := &Margin{
		src:        src,
		cfg:        cfg,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		invalidate: func() {},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.settings = render.NewSettings(cfg, m.palette)
	m.lifetime, m.stop = context.WithCancel(context.Background())

	trackerOpts := []refs.Option{
		refs.WithLogger(m.logger),
		refs.OnChange(func() { m.invalidate() }),
	}
	if m.finder != nil {
		trackerOpts = append(trackerOpts, refs.WithFinder(m.finder))
	}
	m.tracker = refs.NewTracker(src, trackerOpts...)

	m.unsubscribe = src.Subscribe(m.stateUpdated)
	if src.Current() != nil {
		m.stateUpdated(src.Current())
	}
	return m
}

// Width returns the width of the margin strip.
func (m *Margin) Width() float64 {
	return m.cfg.Render.Width()
}

// Model returns the committed structure model, or nil before the first
// pass has completed.
func (m *Margin) Model() *Model {
	return m.model.Load()
}

// References returns the committed reference context, or nil.
func (m *Margin) References() *refs.Context {
	return m.tracker.Context()
}

// stateUpdated schedules a structure pass after the debounce delay. Every
// call cancels the pending or running pass.
func (m *Margin) stateUpdated(*analysis.Snapshot) {
	if m.closed.Load() {
		return
	}
	ctx, h := m.slot.Renew(m.lifetime)

	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.cfg.Debounce, func() {
		defer h.Done()
		if err := m.run(ctx, h); err != nil {
			m.logger.Warn("margin: structure pass failed", slog.String("error", err.Error()))
		}
	})
}

// Update runs a structure pass now, cancelling any pending one, and returns
// once it has committed or been superseded.
func (m *Margin) Update(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.timerMu.Lock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timerMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(m.lifetime, cancel)
	defer stop()

	ctx, h := m.slot.Renew(ctx)
	defer h.Done()
	return m.run(ctx, h)
}

func (m *Margin) run(ctx context.Context, h *pass.Handle) error {
	snap := m.src.Current()
	if snap == nil {
		return nil
	}
	opts := m.cfg.Markers

	var tree *model.CodeBlock
	if opts.Intersects(memberLayers) {
		var err error
		tree, err = structure.Build(ctx, snap.Root, snap.Lang, snap.Source)
		if err != nil {
			return passError("building structure", err)
		}
	}
	var regions []model.RegionDirective
	if opts.Contains(config.RegionDirective) {
		var err error
		regions, err = structure.CollectRegions(ctx, snap.Root, snap.Lang, snap.Source)
		if err != nil {
			return passError("collecting regions", err)
		}
	}

	committed := m.slot.Do(h, func() {
		m.model.Store(&Model{Tree: tree, Regions: regions, Snapshot: snap})
	})
	if !committed {
		return nil
	}
	m.logger.Debug("margin: model committed",
		slog.String("path", snap.Path),
		slog.Int64("version", snap.Version),
		slog.Int("regions", len(regions)))
	m.invalidate()

	if opts.Contains(config.SymbolReference) {
		m.tracker.Refresh(m.lifetime)
	}
	return nil
}

// passError drops cancellation, which only means a newer pass took over.
func passError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return fmt.Errorf("margin: %s: %w", op, err)
}

// CaretMoved starts a reference search at pos. The returned channel is
// closed when the search is done.
func (m *Margin) CaretMoved(pos int) <-chan struct{} {
	if m.closed.Load() || !m.cfg.Markers.Contains(config.SymbolReference) {
		done := make(chan struct{})
		close(done)
		return done
	}
	return m.tracker.CaretMoved(m.lifetime, pos)
}

// Geometry returns a strip of the given height laid out over the current
// document, or nil when there is none yet.
func (m *Margin) Geometry(height float64) render.Geometry {
	snap := m.src.Current()
	if snap == nil {
		return nil
	}
	return render.NewStrip(snap, m.Width(), height)
}

// Render draws the committed model and reference context onto s. It never
// waits for a background pass.
func (m *Margin) Render(ctx context.Context, s render.Surface, g render.Geometry) {
	if m.closed.Load() || g == nil {
		return
	}
	if mdl := m.model.Load(); mdl != nil {
		render.Markers(ctx, s, mdl.Tree, mdl.Regions, g, m.settings)
	}
	render.References(ctx, s, m.tracker.Context(), g, m.settings)
}

// Close stops the margin. Passes in flight are cancelled and never commit.
func (m *Margin) Close() {
	if m.closed.Swap(true) {
		return
	}
	m.unsubscribe()

	m.timerMu.Lock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timerMu.Unlock()

	m.slot.Cancel()
	m.tracker.Stop()
	m.stop()
}
