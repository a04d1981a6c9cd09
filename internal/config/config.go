// Package config provides YAML-based configuration loading for Palabra.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Palabra configuration, loaded from palabra.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Leech    LeechConfig    `yaml:"leech"`
	Undo     UndoConfig     `yaml:"undo"`
	Server   ServerConfig   `yaml:"server"`
	Jobs     JobsConfig     `yaml:"jobs"`
}

// DatabaseConfig selects the card store backend. Driver is "sqlite"
// (Path) or "mysql" (Host/Port/Database).
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// LeechConfig controls leech detection.
type LeechConfig struct {
	// Threshold is the lapse count at which a card first becomes a leech.
	Threshold int `yaml:"threshold"`
	// Action is "tag_only" or "pause".
	Action string `yaml:"action"`
}

// UndoConfig controls per-session undo history.
type UndoConfig struct {
	Capacity int `yaml:"capacity"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// JobsConfig holds cron expressions (5-field) for the periodic jobs.
type JobsConfig struct {
	ResumeExpired string `yaml:"resume_expired"`
	Unbury        string `yaml:"unbury"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "palabra.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Database == "" {
		c.Database.Database = "palabra"
	}
	if c.Leech.Threshold == 0 {
		c.Leech.Threshold = 8
	}
	if c.Leech.Action == "" {
		c.Leech.Action = "pause"
	}
	if c.Undo.Capacity == 0 {
		c.Undo.Capacity = 50
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Jobs.ResumeExpired == "" {
		// Daily, a few minutes past local midnight.
		c.Jobs.ResumeExpired = "5 0 * * *"
	}
	if c.Jobs.Unbury == "" {
		// Hourly, so each user's local day boundary is caught soon
		// after their midnight.
		c.Jobs.Unbury = "10 * * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be sqlite or mysql", c.Database.Driver))
	}
	if c.Leech.Threshold < 1 {
		errs = append(errs, "leech.threshold must be at least 1")
	}
	if c.Leech.Action != "tag_only" && c.Leech.Action != "pause" {
		errs = append(errs, fmt.Sprintf("leech.action %q must be tag_only or pause", c.Leech.Action))
	}
	if c.Undo.Capacity < 1 {
		errs = append(errs, "undo.capacity must be at least 1")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
