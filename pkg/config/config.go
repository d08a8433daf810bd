// Package config loads lox CLI settings from project and user YAML files.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	// ProjectFile is looked up in the project directory.
	ProjectFile = ".lox.yaml"
	// UserFile is looked up under the user's home directory.
	UserFile = ".lox/config.yaml"
)

// Diagnostic output formats.
const (
	FormatPretty = "pretty"
	FormatJSON   = "json"
)

// Config holds CLI settings. Fields missing from a file keep their defaults.
type Config struct {
	LogLevel    string `yaml:"log_level"`
	Diagnostics string `yaml:"diagnostics"`
	Prompt      string `yaml:"prompt"`
	// Jobs bounds how many scripts run at once when several are given.
	Jobs int `yaml:"jobs"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:    "warn",
		Diagnostics: FormatPretty,
		Prompt:      "> ",
		Jobs:        4,
	}
}

// JSONDiagnostics reports whether diagnostics should be printed as JSON.
func (c *Config) JSONDiagnostics() bool {
	return c.Diagnostics == FormatJSON
}

// Validate checks the values that have a fixed set of choices.
func (c *Config) Validate() error {
	switch c.Diagnostics {
	case FormatPretty, FormatJSON:
	default:
		return errors.Errorf("diagnostics must be %q or %q, got %q", FormatPretty, FormatJSON, c.Diagnostics)
	}
	if c.Jobs < 1 {
		return errors.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	return nil
}

// LoadFrom loads settings for projectDir from the OS filesystem.
// Precedence: project (.lox.yaml) → user (~/.lox/config.yaml) → defaults.
// It returns the path that was used, or "" for the defaults. An empty
// homeDir skips the user file.
func LoadFrom(projectDir, homeDir string) (*Config, string, error) {
	return LoadFs(afero.NewOsFs(), projectDir, homeDir)
}

// LoadFs is LoadFrom reading from fs.
func LoadFs(fs afero.Fs, projectDir, homeDir string) (*Config, string, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if homeDir != "" {
		candidates = append(candidates, filepath.Join(homeDir, filepath.FromSlash(UserFile)))
	}

	for _, path := range candidates {
		cfg, err := readFile(fs, path)
		if err == nil {
			return cfg, path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, path, err
		}
	}
	return Default(), "", nil
}

// LoadFile reads a single config file on top of the defaults. Unlike
// LoadFs, a missing file is an error.
func LoadFile(fs afero.Fs, path string) (*Config, error) {
	cfg, err := readFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(err, "config: %s", path)
	}
	return cfg, err
}

func readFile(fs afero.Fs, path string) (*Config, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	cfg.Diagnostics = strings.ToLower(strings.TrimSpace(cfg.Diagnostics))
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config: %s", path)
	}
	return cfg, nil
}
