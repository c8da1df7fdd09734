package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/structmargin/internal/config"
)

const defaultConfigPath = "structmargin.yaml"

const configHeader = `# structmargin configuration.
#
# markers: layers to draw, any of member, type, method, long-member, region,
#          reference, or "all" / "none".
# debounce: delay between a change and the structure pass.
# Values may reference the environment as ${NAME}.
`

// runInit implements the `structmargin init` subcommand, which writes a
// config file holding the defaults.
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("structmargin init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dryRun, force bool
	fs.BoolVar(&dryRun, "dry-run", false, "print the config instead of writing it")
	fs.BoolVar(&force, "force", false, "overwrite an existing config file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: structmargin init [flags] [path]

Write a structmargin config file with every setting at its default value.
path defaults to ./%s.

Flags:
`, defaultConfigPath)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	content, err := generateConfig()
	if err != nil {
		return err
	}
	if dryRun {
		_, _ = fmt.Fprint(stdout, content)
		return nil
	}

	path := defaultConfigPath
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use -force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(stderr, "wrote default config to %s\n", path)
	return nil
}

// generateConfig returns the default configuration as commented YAML.
func generateConfig() (string, error) {
	data, err := yaml.Marshal(config.NewDefaultConfig())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	return configHeader + string(data), nil
}
