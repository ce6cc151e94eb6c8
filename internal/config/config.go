// Package config provides YAML-based configuration for the scanner and
// the viewer, with environment variable expansion.
package config

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/fsviz/fsviz/internal/scan"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Scan      ScanConfig        `yaml:"scan"`
	View      ViewConfig        `yaml:"view"`
	Snapshots SnapshotConfig    `yaml:"snapshots"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Scan.Validate(); err != nil {
		return err
	}
	if err := c.View.Validate(); err != nil {
		return err
	}
	return c.Snapshots.Validate()
}

// ApplicationConfig holds application-level configuration. Logs go to a
// file because the terminal is owned by the viewer.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	LogFile  string     `yaml:"log_file"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return nil
}

// ScanConfig holds scanner configuration.
type ScanConfig struct {
	Workers   int      `yaml:"workers"`
	Xdev      bool     `yaml:"xdev"`
	MaxErrors int      `yaml:"max_errors"`
	Exclude   []string `yaml:"exclude"`
}

// Validate validates the scan configuration.
func (c *ScanConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(256)),
		validation.Field(&c.MaxErrors, validation.Min(0)),
	)
}

// Options converts the scan configuration into scanner options,
// compiling the exclude patterns.
func (c *ScanConfig) Options() (*scan.Options, error) {
	opts := scan.DefaultOptions().
		WithWorkers(c.Workers).
		WithXdev(c.Xdev).
		WithMaxErrors(c.MaxErrors)
	for _, pattern := range c.Exclude {
		if err := opts.AddExcludePattern(pattern); err != nil {
			return nil, err
		}
	}
	return opts, nil
}

// View modes.
const (
	ModeDisc = "disc"
	ModeMap  = "map"
	ModeTree = "tree"
)

// ViewConfig holds viewer configuration.
type ViewConfig struct {
	Mode  string `yaml:"mode"`
	FPS   int    `yaml:"fps"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the view configuration.
func (c *ViewConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(ModeDisc, ModeMap, ModeTree)),
		validation.Field(&c.FPS, validation.Required, validation.Min(1), validation.Max(120)),
	)
}

// SnapshotConfig holds snapshot storage configuration.
type SnapshotConfig struct {
	Dir       string `yaml:"dir"`
	Retention int    `yaml:"retention"`
}

// Validate validates the snapshot configuration.
func (c *SnapshotConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Retention, validation.Min(0)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			LogFile:  "fsviz.log",
		},
		Scan: ScanConfig{
			Workers:   8,
			Xdev:      true,
			MaxErrors: 1000,
		},
		View: ViewConfig{
			Mode: ModeMap,
			FPS:  30,
		},
		Snapshots: SnapshotConfig{
			Dir:       ".fsviz",
			Retention: 5,
		},
	}
}
