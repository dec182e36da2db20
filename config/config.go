// Package config loads rcopt pipeline configuration from YAML.
//
// A configuration file looks like:
//
//	passes:
//	  - guaranteed-peephole
//	workers: 4
//	verify: true
//	log:
//	  level: debug
//	color: auto
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/rcopt/errors"
	"github.com/wippyai/rcopt/pass"
	"github.com/wippyai/rcopt/pass/guaranteed"
)

// Color modes for highlighted output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config describes a pipeline run.
type Config struct {
	Log     LogConfig `yaml:"log"`
	Color   string    `yaml:"color"`
	Passes  []string  `yaml:"passes"`
	Workers int       `yaml:"workers"`
	Verify  bool      `yaml:"verify"`
}

// LogConfig configures the tool's logger.
type LogConfig struct {
	// Level is a zap level name. Empty disables logging.
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Passes: []string{guaranteed.Name},
		Color:  ColorAuto,
	}
}

// Load reads and validates a configuration file. Missing fields keep their
// Default values.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, path)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Read decodes a configuration from r. Unknown keys are rejected.
func Read(r io.Reader) (Config, error) {
	cfg := Default()
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "read")
	}
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindSyntax, err, "decode yaml")
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values that do not depend on a pass registry.
func (c Config) Validate() error {
	var errs errors.Errors
	if c.Workers < 0 {
		errs = append(errs, errors.InvalidInput(errors.PhaseConfig, []string{"workers"},
			fmt.Sprintf("must not be negative, got %d", c.Workers)))
	}
	switch c.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, errors.InvalidInput(errors.PhaseConfig, []string{"color"},
			fmt.Sprintf("unknown mode %q", c.Color)))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, errors.InvalidInput(errors.PhaseConfig, []string{"log", "level"}, err.Error()))
	}
	return errs.OrNil()
}

// LogLevel returns the configured zap level, or zapcore.InvalidLevel when
// logging is off.
func (c Config) LogLevel() (zapcore.Level, error) {
	if c.Log.Level == "" {
		return zapcore.InvalidLevel, nil
	}
	return zapcore.ParseLevel(c.Log.Level)
}

// Manager builds a pass manager for the configured pipeline, resolving
// pass names in r.
func (c Config) Manager(r *pass.Registry) (*pass.Manager, error) {
	passes, err := r.Pipeline(c.Passes)
	if err != nil {
		return nil, err
	}
	return &pass.Manager{
		Passes:     passes,
		Workers:    c.Workers,
		VerifyEach: c.Verify,
	}, nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
