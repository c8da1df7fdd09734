// structmargin renders the structure margin of C# and Java sources as SVG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/structmargin/internal/analysis"
	"github.com/phobologic/structmargin/internal/config"
	"github.com/phobologic/structmargin/internal/discover"
	"github.com/phobologic/structmargin/internal/lang"
	"github.com/phobologic/structmargin/internal/margin"
	"github.com/phobologic/structmargin/internal/render"
	"github.com/phobologic/structmargin/internal/svg"
)

var version = "dev"

const (
	defaultMaxFileSize = 1_000_000 // 1 MB
	defaultHeight      = 600
	defaultWidth       = 160
	configEnv          = "STRUCTMARGIN_CONFIG"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options are the parsed command line settings.
type options struct {
	cfg         *config.Config
	caret       int
	height      float64
	width       float64
	output      string
	maxFileSize int
	langFilter  []string
	logger      *slog.Logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "init" {
		return runInit(args[1:], stdout, stderr)
	}

	fs := flag.NewFlagSet("structmargin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath  string
		markers     string
		langs       string
		watchMode   bool
		verbose     bool
		showVersion bool
		opts        options
	)

	fs.StringVar(&configPath, "config", os.Getenv(configEnv), "YAML config file (default $"+configEnv+")")
	fs.StringVar(&markers, "markers", "", "comma-separated marker layers, overriding the config")
	fs.IntVar(&opts.caret, "caret", -1, "caret offset whose symbol references are marked")
	fs.Float64Var(&opts.height, "height", defaultHeight, "strip height in pixels")
	fs.Float64Var(&opts.width, "width", defaultWidth, "SVG canvas width in pixels")
	fs.StringVar(&opts.output, "o", "", "output file, or output directory when rendering a directory")
	fs.StringVar(&langs, "l", "", "comma-separated languages to include")
	fs.StringVar(&langs, "langs", "", "comma-separated languages to include")
	fs.IntVar(&opts.maxFileSize, "max-file-size", defaultMaxFileSize, "skip files larger than this many bytes")
	fs.BoolVar(&watchMode, "watch", false, "re-render the file whenever it changes")
	fs.BoolVar(&verbose, "v", false, "debug logging")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "structmargin %s\n", version)
		return nil
	}
	if fs.NArg() != 1 {
		return errors.New("expected one source file or directory")
	}

	opts.cfg = config.NewDefaultConfig()
	if configPath != "" {
		if err := config.Load(configPath, opts.cfg); err != nil {
			return err
		}
	}
	if markers != "" {
		m, err := config.ParseMarkerOptions(strings.Split(markers, ","))
		if err != nil {
			return err
		}
		opts.cfg.Markers = m
	}
	if opts.height <= 0 || opts.width <= 0 {
		return errors.New("height and width must be positive")
	}

	level := opts.cfg.LogLevel
	if verbose {
		level = slog.LevelDebug
	}
	opts.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if langs != "" {
		for _, name := range strings.Split(langs, ",") {
			name = strings.TrimSpace(name)
			if _, ok := lang.Languages[name]; !ok {
				return fmt.Errorf("unsupported language %q", name)
			}
			opts.langFilter = append(opts.langFilter, name)
		}
	}

	target, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("source path: %w", err)
	}

	switch {
	case info.IsDir() && watchMode:
		return errors.New("-watch needs a single file")
	case info.IsDir():
		return renderDir(ctx, target, &opts, stderr)
	case watchMode:
		return watch(ctx, target, &opts)
	}

	source, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	out, err := renderSource(ctx, target, source, &opts)
	if err != nil {
		return err
	}
	if opts.output == "" {
		_, err = io.WriteString(stdout, out)
		return err
	}
	return writeFile(opts.output, out)
}

// renderSource runs one structure pass and, with a caret, one reference
// search over source and encodes the resulting strip.
func renderSource(ctx context.Context, path string, source []byte, opts *options) (string, error) {
	l, err := analysis.ForPath(path)
	if err != nil {
		return "", err
	}
	svc := analysis.NewService(l, path, analysis.WithLogger(opts.logger))
	defer svc.Close()
	if _, err := svc.Update(ctx, source); err != nil {
		return "", err
	}

	m := margin.New(svc, opts.cfg, margin.WithLogger(opts.logger))
	defer m.Close()
	if err := m.Update(ctx); err != nil {
		return "", err
	}
	if opts.caret >= 0 {
		<-m.CaretMoved(opts.caret)
	}
	return encode(ctx, m, path, opts), nil
}

func encode(ctx context.Context, m *margin.Margin, title string, opts *options) string {
	var rec render.Recorder
	m.Render(ctx, &rec, m.Geometry(opts.height))
	return svg.Encode(&rec, opts.width, opts.height, title)
}

// renderDir renders every discovered source under root into the output
// directory, mirroring the source layout.
func renderDir(ctx context.Context, root string, opts *options, stderr io.Writer) error {
	if opts.output == "" {
		return errors.New("-o output directory is required when rendering a directory")
	}
	files, err := discover.Files(root, opts.langFilter)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	files = filterBySize(root, files, opts.maxFileSize, stderr)
	if len(files) == 0 {
		return fmt.Errorf("no parseable files found")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, f := range files {
		src := filepath.Join(root, f.Path)
		dst := filepath.Join(opts.output, f.Path+".svg")
		if isFresh(src, dst) {
			opts.logger.Debug("render: up to date", slog.String("path", f.Path))
			continue
		}
		g.Go(func() error {
			source, err := os.ReadFile(src)
			if err != nil {
				return fmt.Errorf("reading %s: %w", f.Path, err)
			}
			out, err := renderSource(ctx, f.Path, source, opts)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", f.Path, err)
			}
			opts.logger.Debug("render: written", slog.String("path", dst))
			return writeFile(dst, out)
		})
	}
	return g.Wait()
}

// isFresh reports whether dst was written after src last changed.
func isFresh(src, dst string) bool {
	out, err := os.Stat(dst)
	if err != nil {
		return false
	}
	in, err := os.Stat(src)
	if err != nil {
		return false
	}
	return in.ModTime().Before(out.ModTime())
}

func filterBySize(root string, files []discover.FileEntry, maxSize int, stderr io.Writer) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > int64(maxSize) {
			_, _ = fmt.Fprintf(stderr, "Warning: %s: skipped (>%d bytes)\n", f.Path, maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// writeFile replaces path with content through a temporary file, so a
// viewer polling the output never reads a half-written SVG.
func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".structmargin-*")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-config": true, "--config": true,
	"-markers": true, "--markers": true,
	"-caret": true, "--caret": true,
	"-height": true, "--height": true,
	"-width": true, "--width": true,
	"-o": true, "--o": true,
	"-l": true, "--l": true,
	"-langs": true, "--langs": true,
	"-max-file-size": true, "--max-file-size": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
