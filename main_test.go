package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

const sampleSource = `namespace Demo
{
    class Outer
    {
        int count;

        #region Helpers
        void Add(int step)
        {
            count = count + step;
        }
        #endregion
    }
}
`

func writeTestFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func runArgs(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunFile(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, t.TempDir(), "Demo.cs", sampleSource)

	out, stderr, err := runArgs(t, path)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	if !strings.HasPrefix(out, "<svg") {
		t.Errorf("not an SVG document:\n%s", out)
	}
	for _, want := range []string{">Outer</text>", ">Helpers</text>", "<line", "<rect"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCaret(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, t.TempDir(), "Demo.cs", sampleSource)
	caret := strconv.Itoa(strings.Index(sampleSource, "count;"))

	without, _, err := runArgs(t, "-markers", "reference", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	with, _, err := runArgs(t, "-markers", "reference", path, "-caret", caret)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Count(without, "<rect") != 0 {
		t.Errorf("markers drawn without a caret:\n%s", without)
	}
	// a write, a read and the definition
	if n := strings.Count(with, "<rect"); n != 3 {
		t.Errorf("got %d reference markers, want 3:\n%s", n, with)
	}
}

func TestRunOutputFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeTestFile(t, dir, "Demo.cs", sampleSource)
	outPath := filepath.Join(dir, "out", "demo.svg")

	out, _, err := runArgs(t, "-o", outPath, path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty with -o, got %q", out)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "Outer") {
		t.Error("output file missing the class label")
	}
}

func TestRunConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeTestFile(t, dir, "Demo.cs", sampleSource)
	cfgPath := writeTestFile(t, dir, "structmargin.yaml", "markers: [region]\n")

	out, _, err := runArgs(t, "-config", cfgPath, path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(out, "<line") || strings.Contains(out, ">Outer<") {
		t.Errorf("member layers drawn with only regions enabled:\n%s", out)
	}
	if !strings.Contains(out, ">Helpers</text>") {
		t.Errorf("region label missing:\n%s", out)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeTestFile(t, dir, "Demo.cs", sampleSource)
	cfgPath := writeTestFile(t, dir, "structmargin.yaml", "render:\n  nudge_ratio: 4\n")

	if _, _, err := runArgs(t, "-config", cfgPath, path); err == nil || !strings.Contains(err.Error(), "config: invalid") {
		t.Errorf("err = %v, want a validation error", err)
	}
	if _, _, err := runArgs(t, "-markers", "glitter", path); err == nil {
		t.Error("unknown marker accepted")
	}
}

func TestRunDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "src/Demo.cs", sampleSource)
	writeTestFile(t, dir, "src/Shape.java", "class Shape { int sides; }\n")
	writeTestFile(t, dir, "bin/Copy.cs", sampleSource)
	outDir := filepath.Join(t.TempDir(), "svg")

	_, stderr, err := runArgs(t, dir, "-o", outDir)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	for _, rel := range []string{"src/Demo.cs.svg", "src/Shape.java.svg"} {
		if _, err := os.Stat(filepath.Join(outDir, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "bin")); !os.IsNotExist(err) {
		t.Error("build output directory was rendered")
	}

	// a second run finds everything up to date
	if _, _, err := runArgs(t, dir, "-o", outDir); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestRunDirectoryLanguageFilter(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "Demo.cs", sampleSource)
	writeTestFile(t, dir, "Shape.java", "class Shape {}\n")
	outDir := t.TempDir()

	if _, _, err := runArgs(t, "-l", "java", "-o", outDir, dir); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "Demo.cs.svg")); !os.IsNotExist(err) {
		t.Error("C# file rendered with a java filter")
	}
	if _, err := os.Stat(filepath.Join(outDir, "Shape.java.svg")); err != nil {
		t.Errorf("java file not rendered: %v", err)
	}
}

func TestRunDirectoryNeedsOutput(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "Demo.cs", sampleSource)

	if _, _, err := runArgs(t, dir); err == nil || !strings.Contains(err.Error(), "-o") {
		t.Errorf("err = %v, want output directory error", err)
	}
}

func TestRunNoFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "readme.txt", "nothing here")

	_, _, err := runArgs(t, "-o", t.TempDir(), dir)
	if err == nil || !strings.Contains(err.Error(), "no parseable files") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunMaxFileSize(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "Small.cs", "class S {}\n")
	writeTestFile(t, dir, "Big.cs", "class B {\n"+strings.Repeat("    int x;\n", 50)+"}\n")
	outDir := t.TempDir()

	_, stderr, err := runArgs(t, "--max-file-size", "100", "-o", outDir, dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "Small.cs.svg")); err != nil {
		t.Errorf("Small.cs not rendered: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "Big.cs.svg")); !os.IsNotExist(err) {
		t.Error("Big.cs should be filtered out")
	}
	if !strings.Contains(stderr, "Warning") {
		t.Error("expected warning about skipped file")
	}
}

func TestRunUnsupportedFile(t *testing.T) {
	t.Parallel()
	path := writeTestFile(t, t.TempDir(), "main.go", "package main\n")

	if _, _, err := runArgs(t, path); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("err = %v, want unsupported language", err)
	}
}

func TestRunUnsupportedLanguage(t *testing.T) {
	t.Parallel()

	_, _, err := runArgs(t, "-l", "rust", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "unsupported language") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunArgs(t *testing.T) {
	t.Parallel()

	if _, _, err := runArgs(t); err == nil {
		t.Error("expected error without a path")
	}
	if _, _, err := runArgs(t, filepath.Join(t.TempDir(), "missing.cs")); err == nil {
		t.Error("expected error for a missing file")
	}
	if _, _, err := runArgs(t, "-height", "0", "x.cs"); err == nil {
		t.Error("expected error for zero height")
	}
	if _, _, err := runArgs(t, "-watch", t.TempDir()); err == nil {
		t.Error("expected error watching a directory")
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	out, _, err := runArgs(t, "-V")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "structmargin") {
		t.Errorf("version output: %q", out)
	}
}

func TestRunWatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeTestFile(t, dir, "Demo.cs", sampleSource)
	cfgPath := writeTestFile(t, dir, "fast.yaml", "debounce: 20ms\nlog_level: error\n")
	outPath := filepath.Join(t.TempDir(), "demo.svg")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		var stdout, stderr bytes.Buffer
		errc <- run(ctx, []string{"-watch", "-config", cfgPath, "-o", outPath, path}, &stdout, &stderr)
	}()

	contains := func(s string) func() bool {
		return func() bool {
			data, err := os.ReadFile(outPath)
			return err == nil && strings.Contains(string(data), s)
		}
	}
	eventually(t, 5*time.Second, 20*time.Millisecond, contains(">Outer</text>"), "initial render not written")

	writeTestFile(t, dir, "Demo.cs", strings.ReplaceAll(sampleSource, "Outer", "Renamed"))
	eventually(t, 5*time.Second, 20*time.Millisecond, contains(">Renamed</text>"), "render not refreshed after save")

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("watch did not stop")
	}
}

func TestReorderArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"flags first", []string{"-caret", "5", "a.cs"}, []string{"-caret", "5", "a.cs"}},
		{"positional first", []string{"a.cs", "-o", "a.svg"}, []string{"-o", "a.svg", "a.cs"}},
		{"mixed", []string{"-l", "csharp", "src", "-o", "out"}, []string{"-l", "csharp", "-o", "out", "src"}},
		{"negative value", []string{"a.cs", "-caret", "-1"}, []string{"-caret", "-1", "a.cs"}},
		{"no flags", []string{"."}, []string{"."}},
		{"no args", nil, nil},
		{"bool flag", []string{"-watch", "a.cs"}, []string{"-watch", "a.cs"}},
		{"double dash", []string{"-V", "--", "-odd.cs"}, []string{"-V", "-odd.cs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := reorderArgs(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("len: got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: got %q, want %q (full: %v)", i, got[i], tt.want[i], got)
					break
				}
			}
		})
	}
}
