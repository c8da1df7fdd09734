package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/structmargin/internal/config"
)

// TestGenerateConfigLoads verifies that the generated file decodes back to
// the defaults.
func TestGenerateConfigLoads(t *testing.T) {
	t.Parallel()
	content, err := generateConfig()
	if err != nil {
		t.Fatalf("generateConfig: %v", err)
	}
	if !strings.HasPrefix(content, "# structmargin configuration.") {
		t.Error("missing header comment")
	}
	for _, key := range []string{"markers:", "debounce: 400ms", "long_lines: 50", "overlap_ratio: 0.7"} {
		if !strings.Contains(content, key) {
			t.Errorf("config missing %q:\n%s", key, content)
		}
	}

	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	var got config.Config
	if err := config.Load(path, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := config.NewDefaultConfig()
	if got != *want {
		t.Errorf("loaded %+v, want %+v", got, *want)
	}
}

func TestInitCreatesFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "structmargin.yaml")

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{path}, &stdout, &stderr); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if !strings.Contains(string(data), "markers:") {
		t.Errorf("unexpected content:\n%s", data)
	}
	if !strings.Contains(stderr.String(), path) {
		t.Errorf("stderr should name the file, got %q", stderr.String())
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "structmargin.yaml")
	if err := os.WriteFile(path, []byte("markers: [region]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := runInit([]string{path}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("err = %v, want already exists", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "markers: [region]\n" {
		t.Error("existing file modified")
	}

	if err := runInit([]string{"-force", path}, &stdout, &stderr); err != nil {
		t.Fatalf("runInit -force: %v", err)
	}
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), "debounce:") {
		t.Error("-force did not overwrite")
	}
}

func TestInitDryRun(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "structmargin.yaml")

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{"-dry-run", path}, &stdout, &stderr); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("dry run wrote the file")
	}
	if !strings.Contains(stdout.String(), "markers:") {
		t.Errorf("dry run output: %q", stdout.String())
	}
}

func TestRunDispatchesInit(t *testing.T) {
	t.Parallel()
	out, _, err := runArgs(t, "init", "-dry-run")
	if err != nil {
		t.Fatalf("run init: %v", err)
	}
	if !strings.Contains(out, "# structmargin configuration.") {
		t.Errorf("init output: %q", out)
	}
}
