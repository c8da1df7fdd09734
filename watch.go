package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/structmargin/internal/analysis"
	"github.com/phobologic/structmargin/internal/margin"
)

// watch follows path and rewrites the output SVG after every structure
// pass, until ctx is cancelled. Saves feed the analysis service; the
// margin's debounce coalesces bursts of them.
func watch(ctx context.Context, path string, opts *options) error {
	if opts.output == "" {
		return errors.New("-o output file is required with -watch")
	}
	l, err := analysis.ForPath(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// editors often save by replacing the file, so watch its directory
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	svc := analysis.NewService(l, path, analysis.WithLogger(opts.logger))
	defer svc.Close()

	redraw := make(chan struct{}, 1)
	m := margin.New(svc, opts.cfg,
		margin.WithLogger(opts.logger),
		margin.WithInvalidate(func() {
			select {
			case redraw <- struct{}{}:
			default:
			}
		}))
	defer m.Close()

	load := func() {
		source, err := os.ReadFile(path)
		if err != nil {
			opts.logger.Warn("watch: read failed", slog.String("path", path), slog.String("error", err.Error()))
			return
		}
		if _, err := svc.Update(ctx, source); err != nil && !errors.Is(err, context.Canceled) {
			opts.logger.Warn("watch: parse failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	load()
	if opts.caret >= 0 {
		m.CaretMoved(opts.caret)
	}

	opts.logger.Info("watch: started", slog.String("path", path), slog.String("output", opts.output))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				opts.logger.Debug("watch: changed", slog.String("op", ev.Op.String()))
				load()
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				opts.logger.Error("watch: error", slog.String("error", err.Error()))
			}
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				opts.logger.Info("watch: stopped")
				return nil
			case <-redraw:
				if err := writeFile(opts.output, encode(ctx, m, path, opts)); err != nil {
					return fmt.Errorf("writing %s: %w", opts.output, err)
				}
				opts.logger.Debug("watch: rendered", slog.String("output", opts.output))
			}
		}
	})
	return g.Wait()
}
