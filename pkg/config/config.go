// Package config manages blcc's project and user configuration: dialect
// file extensions, indentation width, header search directories, and
// source-map emission format.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SourceMapFormat controls how the generated-to-origin line map is
// emitted alongside the translated output.
type SourceMapFormat string

const (
	// FormatInline embeds the map as a trailing comment in the generated file.
	FormatInline SourceMapFormat = "inline"
	// FormatSeparate writes the map to a `.map` sidecar file.
	FormatSeparate SourceMapFormat = "separate"
	// FormatBoth does both.
	FormatBoth SourceMapFormat = "both"
	// FormatNone disables map emission entirely.
	FormatNone SourceMapFormat = "none"
)

// IsValid reports whether f is one of the recognized formats.
func (f SourceMapFormat) IsValid() bool {
	switch f {
	case FormatInline, FormatSeparate, FormatBoth, FormatNone:
		return true
	default:
		return false
	}
}

// Config is the complete blcc configuration.
type Config struct {
	Dialect   DialectConfig   `toml:"dialect"`
	SourceMap SourceMapConfig `toml:"sourcemaps"`
}

// DialectConfig controls how source is read and how blocks are indented.
type DialectConfig struct {
	// SourceExt is the extension of translatable source files.
	SourceExt string `toml:"source_ext"`
	// HeaderExt is the extension `#include` resolves against (spec §4.4).
	HeaderExt string `toml:"header_ext"`
	// TabWidth is the visual column width of a tab for indent comparison (spec §3).
	TabWidth int `toml:"tab_width"`
	// SearchDirs are the header search directories, in resolution order.
	SearchDirs []string `toml:"search_dirs"`
}

// SourceMapConfig controls location-map emission.
type SourceMapConfig struct {
	Enabled bool            `toml:"enabled"`
	Format  SourceMapFormat `toml:"format"`
}

// DefaultConfig returns blcc's built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Dialect: DialectConfig{
			SourceExt: ".blcpp",
			HeaderExt: ".blh",
			TabWidth:  4,
		},
		SourceMap: SourceMapConfig{
			Enabled: true,
			Format:  FormatInline,
		},
	}
}

// Load resolves configuration with precedence, lowest to highest:
// built-in defaults → user config (~/.blcc/config.toml) → project config
// (blcc.toml in the current directory) → overrides (CLI flags).
func Load(overrides *Config) (*Config, error) {
	cfg := DefaultConfig()

	userConfigPath := filepath.Join(os.Getenv("HOME"), ".blcc", "config.toml")
	if err := loadConfigFile(userConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if err := loadConfigFile("blcc.toml", cfg); err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg, overrides *Config) {
	if overrides.Dialect.SourceExt != "" {
		cfg.Dialect.SourceExt = overrides.Dialect.SourceExt
	}
	if overrides.Dialect.HeaderExt != "" {
		cfg.Dialect.HeaderExt = overrides.Dialect.HeaderExt
	}
	if overrides.Dialect.TabWidth != 0 {
		cfg.Dialect.TabWidth = overrides.Dialect.TabWidth
	}
	if len(overrides.Dialect.SearchDirs) > 0 {
		cfg.Dialect.SearchDirs = overrides.Dialect.SearchDirs
	}
	if overrides.SourceMap.Format != "" {
		cfg.SourceMap.Format = overrides.SourceMap.Format
	}
}

// loadConfigFile merges a TOML file into cfg. A missing file is not an
// error; callers rely on the defaults already in cfg.
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Validate checks that cfg's fields hold legal values.
func (c *Config) Validate() error {
	if c.Dialect.TabWidth <= 0 {
		return fmt.Errorf("invalid tab_width: %d (must be > 0)", c.Dialect.TabWidth)
	}
	if c.Dialect.SourceExt == "" || c.Dialect.SourceExt[0] != '.' {
		return fmt.Errorf("invalid source_ext: %q (must start with '.')", c.Dialect.SourceExt)
	}
	if c.Dialect.HeaderExt == "" || c.Dialect.HeaderExt[0] != '.' {
		return fmt.Errorf("invalid header_ext: %q (must start with '.')", c.Dialect.HeaderExt)
	}
	if !c.SourceMap.Format.IsValid() {
		return fmt.Errorf("invalid sourcemap format: %q (must be 'inline', 'separate', 'both', or 'none')",
			c.SourceMap.Format)
	}
	return nil
}
