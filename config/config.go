package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tdewolff/osmrender/export"
	"github.com/tdewolff/osmrender/style"
)

// Config is the application configuration.
type Config struct {
	Map    Map    `yaml:"map"`
	Export Export `yaml:"export"`
}

// Map configures styling and rendering.
type Map struct {
	Projection string  `yaml:"projection"`
	Style      string  `yaml:"style"`     // stylesheet name or YAML file
	StyleDir   string  `yaml:"style_dir"` // directory of YAML stylesheets
	Simplify   float64 `yaml:"simplify"`  // tolerance in pixels, zero disables
	Cull       bool    `yaml:"cull"`
	Workers    int     `yaml:"workers"`
}

// Export configures the output image.
type Export struct {
	Format     string      `yaml:"format"`
	Width      float64     `yaml:"width"`
	Height     float64     `yaml:"height"`
	DPI        float64     `yaml:"dpi"`
	Quality    int         `yaml:"quality"` // JPEG quality from 1 to 100
	Background style.Color `yaml:"background"`
}

// Default returns the default configuration: Web Mercator, the default stylesheet, and a 1920x1080 SVG at 300 DPI on #F0F8FF with a JPEG quality of 90.
func Default() Config {
	return Config{
		Map: Map{
			Projection: "webmercator",
			Style:      "default",
			Workers:    1,
		},
		Export: Export{
			Format:     "svg",
			Width:      1920.0,
			Height:     1080.0,
			DPI:        300.0,
			Quality:    90,
			Background: style.RGB(240, 248, 255),
		},
	}
}

// Options returns the export options.
func (e Export) Options() export.Options {
	background := e.Background
	return export.Options{
		Format:     e.Format,
		Width:      e.Width,
		Height:     e.Height,
		DPI:        e.DPI,
		Quality:    e.Quality,
		Background: &background,
	}
}

// Parse reads a YAML configuration on top of the defaults. Keys that are absent keep their default value.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Load reads a YAML configuration file on top of the defaults.
func Load(filename string) (Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// DefaultPath returns the path of the configuration file in the user's configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "osmrender", "config.yaml"), nil
}

// LoadDefault reads the configuration from DefaultPath, or returns the defaults if it does not exist.
func LoadDefault() (Config, error) {
	filename, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	cfg, err := Load(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes the configuration as YAML, creating parent directories as needed.
func (c Config) Save(filename string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0o644)
}
