// Package config handles animation-lang.toml controller configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the full controller configuration.
type Config struct {
	Strip  Strip  `toml:"strip"`
	Server Server `toml:"server"`
	Limits Limits `toml:"limits"`
	Store  Store  `toml:"store"`

	// Path is the file the configuration was loaded from (set at load
	// time).
	Path string `toml:"-"`
}

// Strip describes the attached LED strip.
type Strip struct {
	Length uint32 `toml:"length"`
	FPS    uint32 `toml:"fps"`
}

// Server configures the HTTP program-upload endpoint.
type Server struct {
	Listen string `toml:"listen"`
}

// Limits bounds program execution; zero disables a limit.
type Limits struct {
	MaxInstructions uint64 `toml:"max-instructions"`
	MaxPerFrame     uint64 `toml:"max-per-frame"`
}

// Store configures the persisted program library.
type Store struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Strip:  Strip{Length: 60, FPS: 30},
		Server: Server{Listen: "127.0.0.1:8755"},
		Limits: Limits{MaxPerFrame: 1_000_000},
		Store:  Store{Path: "programs.db"},
	}
}

// Load parses a configuration file, filling unset fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	c.Path = path

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate rejects configurations the controller cannot run with.
func (c *Config) Validate() error {
	if c.Strip.Length == 0 {
		return fmt.Errorf("strip.length must be positive")
	}
	if c.Strip.FPS == 0 {
		return fmt.Errorf("strip.fps must be positive")
	}
	return nil
}
