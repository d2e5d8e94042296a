// Package config defines the nexscan configuration file format and its
// defaults. Files are YAML; every field can also be overridden through CLI
// flags or NEXSCAN_* environment variables by the command layer.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	scanerrors "github.com/nexscan/nexscan/internal/errors"
)

var validate = validator.New()

// Config represents the complete nexscan configuration.
type Config struct {
	// Scan configuration
	Scan ScanConfig `yaml:"scan" json:"scan"`

	// Output configuration
	Output OutputConfig `yaml:"output" json:"output"`

	// Resolver configuration
	Resolver ResolverConfig `yaml:"resolver" json:"resolver"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ScanConfig holds default probing behavior.
type ScanConfig struct {
	// Port specification, e.g. "22,80,8000-8100"
	Ports string `yaml:"ports" json:"ports"`

	// Number of top ports to scan instead of an explicit spec
	TopPorts int `yaml:"top_ports" json:"top_ports" validate:"gte=0"`

	// Scan type (connect, half-open, udp)
	ScanType string `yaml:"scan_type" json:"scan_type" validate:"oneof=connect half-open udp tcp syn udp-probe"`

	// Per-probe timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`

	// Fixed worker pool size
	Concurrency int `yaml:"concurrency" json:"concurrency" validate:"gte=1,lte=1024"`

	// Probe launches per second; 0 disables rate limiting
	RateLimit int `yaml:"rate_limit" json:"rate_limit" validate:"gte=0"`

	// Sample service banners from open TCP ports
	GrabBanners bool `yaml:"grab_banners" json:"grab_banners"`
}

// OutputConfig holds result rendering settings.
type OutputConfig struct {
	// Output format (text, json, csv)
	Format string `yaml:"format" json:"format" validate:"oneof=text json csv"`

	// File to write results to; empty means stdout
	File string `yaml:"file" json:"file"`

	// Show closed and filtered ports, not only open ones
	ShowAll bool `yaml:"show_all" json:"show_all"`

	// Colorize text output
	Color bool `yaml:"color" json:"color"`
}

// ResolverConfig holds hostname resolution settings.
type ResolverConfig struct {
	// DNS server address, e.g. "1.1.1.1:53"; empty uses the system resolver
	Server string `yaml:"server" json:"server"`

	// Resolution timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`

	// Reverse-resolve the target IP for display
	ReverseLookup bool `yaml:"reverse_lookup" json:"reverse_lookup"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format" validate:"oneof=text json"`

	// Log output (stdout, stderr, or a file path)
	Output string `yaml:"output" json:"output"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			Ports:       "",
			TopPorts:    100,
			ScanType:    "connect",
			Timeout:     2 * time.Second,
			Concurrency: 100,
			RateLimit:   0,
			GrabBanners: false,
		},
		Output: OutputConfig{
			Format:  "text",
			File:    "",
			ShowAll: false,
			Color:   true,
		},
		Resolver: ResolverConfig{
			Server:        "",
			Timeout:       5 * time.Second,
			ReverseLookup: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads a configuration file, layering it over the defaults. A missing
// file is not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, scanerrors.WrapConfigError(scanerrors.CodeFilePermission,
			"failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, scanerrors.WrapConfigError(scanerrors.CodeConfiguration,
			"failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return scanerrors.WrapConfigError(scanerrors.CodeFileWrite,
			"failed to create config directory", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return scanerrors.WrapConfigError(scanerrors.CodeConfiguration,
			"failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return scanerrors.WrapConfigError(scanerrors.CodeFileWrite,
			"failed to write config file", err)
	}
	return nil
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return scanerrors.WrapConfigError(scanerrors.CodeValidation,
			"invalid configuration", err)
	}
	if c.Scan.Ports == "" && c.Scan.TopPorts == 0 {
		return scanerrors.ErrConfigMissing("scan.ports")
	}
	return nil
}
