// Package config loads the yunic project configuration, yuni.yaml.
//
// The file is looked up from the input document's directory upwards, so a
// single yuni.yaml at the root of a project covers every document below it.
// Command-line flags override file values field by field.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/yunilang/yuni/internal/astio"
)

// FileNames are the names searched for, in order, in each directory
var FileNames = []string{"yuni.yaml", "yuni.yml"}

// Color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config represents yuni.yaml
type Config struct {
	// Jobs bounds how many functions are analysed at once; 0 means one per CPU
	Jobs int `yaml:"jobs,omitempty"`

	Verbose bool `yaml:"verbose,omitempty"`
	Debug   bool `yaml:"debug,omitempty"`

	// Color is auto, always or never
	Color string `yaml:"color,omitempty"`

	// Cache is the SQLite result cache path. Relative paths are resolved
	// against the config file's directory. Empty disables caching.
	Cache string `yaml:"cache,omitempty"`

	// Language is a semver constraint on the documents' language header,
	// e.g. "~0.1"
	Language string `yaml:"language,omitempty"`

	// Domain, when set, narrows every integer column of a match to
	// [min, max] for exhaustiveness checking
	Domain *Domain `yaml:"domain,omitempty"`

	// Path is the file the config was read from, empty for defaults
	Path string `yaml:"-"`
}

// Domain is an inclusive integer range
type Domain struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// Default returns the configuration used when no yuni.yaml exists
func Default() *Config {
	return &Config{Color: ColorAuto}
}

// Load reads and parses a yuni.yaml file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses yuni.yaml content. path is used for error messages and to
// resolve the cache path.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Path = path
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Cache != "" && cfg.Cache != ":memory:" && !filepath.IsAbs(cfg.Cache) && path != "" {
		cfg.Cache = filepath.Join(filepath.Dir(path), cfg.Cache)
	}
	return cfg, nil
}

// Find searches for yuni.yaml starting from dir and walking up to the
// filesystem root. It returns "" and a nil error when there is none.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Discover loads the config governing a document in dir, or the defaults
// when none is found
func Discover(dir string) (*Config, error) {
	path, err := Find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	switch c.Color {
	case "":
		c.Color = ColorAuto
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be auto, always or never, got %q", c.Color)
	}
	if c.Language != "" {
		if _, err := astio.ParseLanguages(c.Language); err != nil {
			return err
		}
	}
	if c.Domain != nil && c.Domain.Min > c.Domain.Max {
		return fmt.Errorf("domain min %d exceeds max %d", c.Domain.Min, c.Domain.Max)
	}
	return nil
}

// Languages returns the accepted language constraint, or nil for the
// core's default
func (c *Config) Languages() *semver.Constraints {
	if c.Language == "" {
		return nil
	}
	lc, err := astio.ParseLanguages(c.Language)
	if err != nil {
		// validated on load
		return nil
	}
	return lc
}

// Overrides holds flag values; nil fields leave the file value alone
type Overrides struct {
	Jobs    *int
	Verbose *bool
	Debug   *bool
	Color   *string
	Cache   *string
}

// Apply returns a copy of c with the set overrides applied
func (c *Config) Apply(o Overrides) (*Config, error) {
	out := *c
	if o.Jobs != nil {
		out.Jobs = *o.Jobs
	}
	if o.Verbose != nil {
		out.Verbose = *o.Verbose
	}
	if o.Debug != nil {
		out.Debug = *o.Debug
	}
	if o.Color != nil {
		out.Color = *o.Color
	}
	if o.Cache != nil {
		out.Cache = *o.Cache
	}
	if err := out.validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
