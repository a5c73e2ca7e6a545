// Package config holds the bridge settings: defaults, an optional YAML file,
// environment overrides and command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Run modes select where the operator page is served from.
const (
	ModePackaged    = "packaged"
	ModeDevelopment = "development"
)

// Config is the full runtime configuration.
type Config struct {
	// StartPort is the first port tried by the port allocator.
	StartPort int `yaml:"start_port"`
	// PortScanLimit caps how many consecutive ports are probed.
	PortScanLimit int `yaml:"port_scan_limit"`

	// FPS is the per-session capture cadence.
	FPS int `yaml:"fps"`
	// Display is the index of the captured display.
	Display int `yaml:"display"`
	// CaptureFormat is "png" or "jpeg".
	CaptureFormat string `yaml:"capture_format"`
	// Quality applies to jpeg captures only (1-100).
	Quality int `yaml:"quality"`

	Thumbnail Thumbnail `yaml:"thumbnail"`

	// SendBuffer is the per-session outbound queue length.
	SendBuffer int `yaml:"send_buffer"`
	// RelayBuffer is the UI relay queue length.
	RelayBuffer int `yaml:"relay_buffer"`

	Mode  string `yaml:"mode"`
	UIDir string `yaml:"ui_dir"`

	LogLevel string `yaml:"log_level"`
}

// Thumbnail configures the processImage transform.
type Thumbnail struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Format string `yaml:"format"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		StartPort:     3000,
		PortScanLimit: 1000,
		FPS:           5,
		Display:       0,
		CaptureFormat: "png",
		Quality:       80,
		Thumbnail: Thumbnail{
			Width:  200,
			Height: 200,
			Format: "png",
		},
		SendBuffer:  16,
		RelayBuffer: 256,
		Mode:        ModePackaged,
		UIDir:       "./web",
		LogLevel:    "info",
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DESKBRIDGE_* variables. Unparseable numbers
// are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("DESKBRIDGE_MODE"); v != "" {
		c.Mode = strings.ToLower(v)
	}
	if v := getenv("DESKBRIDGE_UI_DIR"); v != "" {
		c.UIDir = v
	}
	if v := getenv("DESKBRIDGE_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := getenv("DESKBRIDGE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.StartPort = n
		}
	}
	if v := getenv("DESKBRIDGE_FPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.FPS = n
		}
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.StartPort < 1 || c.StartPort > 65535:
		return fmt.Errorf("start_port %d out of range", c.StartPort)
	case c.PortScanLimit < 1:
		return errors.New("port_scan_limit must be positive")
	case c.FPS < 1:
		return errors.New("fps must be positive")
	case c.Thumbnail.Width < 1 || c.Thumbnail.Height < 1:
		return errors.New("thumbnail size must be positive")
	case c.SendBuffer < 1 || c.RelayBuffer < 1:
		return errors.New("buffers must be positive")
	}
	switch c.CaptureFormat {
	case "png", "jpeg":
	default:
		return fmt.Errorf("unknown capture_format %q", c.CaptureFormat)
	}
	switch c.Mode {
	case ModePackaged, ModeDevelopment:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	return nil
}
