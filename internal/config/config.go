// Package config holds the margin configuration and its YAML loader.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Default numeric constants of the margin.
const (
	DefaultDebounce       = 400 * time.Millisecond
	DefaultLongSpan       = 150
	DefaultLongLines      = 50
	DefaultLabelThreshold = 30
	DefaultLabelSize      = 8
	DefaultOverlapRatio   = 0.7
	DefaultNudgeRatio     = 0.3
	DefaultMarkerSize     = 3
	DefaultPadding        = 3
)

// Config represents the margin configuration.
type Config struct {
	LogLevel slog.Level    `yaml:"log_level"`
	Markers  MarkerOptions `yaml:"markers"`
	Debounce time.Duration `yaml:"debounce"`
	Render   RenderConfig  `yaml:"render"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	return c.Render.Validate()
}

// RenderConfig holds the geometry thresholds of the marker renderer.
type RenderConfig struct {
	// LongSpan is the span length (in bytes) above which a member is
	// checked for the long-declaration frame.
	LongSpan int `yaml:"long_span"`
	// LongLines is the line count at which the frame is drawn.
	LongLines int `yaml:"long_lines"`
	// LabelThreshold is the pixel height above which a member gets a label.
	LabelThreshold float64 `yaml:"label_threshold"`
	LabelSize      float64 `yaml:"label_size"`
	OverlapRatio   float64 `yaml:"overlap_ratio"`
	NudgeRatio     float64 `yaml:"nudge_ratio"`
	MarkerSize     float64 `yaml:"marker_size"`
	Padding        float64 `yaml:"padding"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LongSpan, validation.Required, validation.Min(1)),
		validation.Field(&c.LongLines, validation.Required, validation.Min(1)),
		validation.Field(&c.LabelThreshold, validation.Min(0.0)),
		validation.Field(&c.LabelSize, validation.Required, validation.Min(1.0)),
		validation.Field(&c.OverlapRatio, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.NudgeRatio, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MarkerSize, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Padding, validation.Min(0.0)),
	)
}

// Width returns the margin width: padding plus one marker.
func (c *RenderConfig) Width() float64 {
	return c.Padding + c.MarkerSize
}

// NewDefaultConfig returns a new Config with every layer enabled and the
// default thresholds.
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: slog.LevelInfo,
		Markers:  MemberMarginMask,
		Debounce: DefaultDebounce,
		Render: RenderConfig{
			LongSpan:       DefaultLongSpan,
			LongLines:      DefaultLongLines,
			LabelThreshold: DefaultLabelThreshold,
			LabelSize:      DefaultLabelSize,
			OverlapRatio:   DefaultOverlapRatio,
			NudgeRatio:     DefaultNudgeRatio,
			MarkerSize:     DefaultMarkerSize,
			Padding:        DefaultPadding,
		},
	}
}

// Checker is implemented by settings types that verify themselves after
// decoding. Config and RenderConfig implement it.
type Checker interface {
	Validate() error
}

// Load decodes the YAML settings file at path into target. ${VAR}
// references are replaced from the environment first, and keys missing
// from the file keep target's current values, so callers usually start from
// NewDefaultConfig. If target is a Checker it is validated last.
func Load[T any](path string, target *T) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), target); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	if c, ok := any(target).(Checker); ok {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("config: invalid %s: %w", path, err)
		}
	}
	return nil
}

// LoadOptional is Load for a settings file that may be absent: an empty or
// missing path leaves target as it is.
func LoadOptional[T any](path string, target *T) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return Load(path, target)
}
