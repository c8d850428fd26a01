// Package config handles loading and managing application configuration
// from YAML files, an optional .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors returned by Validate.
var (
	ErrInvalidBoxSize = errors.New("invalid box size: must be positive")
	ErrInvalidBorder  = errors.New("invalid border: must be non-negative")
	ErrInvalidColor   = errors.New("invalid color")
	ErrInvalidPort    = errors.New("invalid port: must be between 1 and 65535")
)

// Fixed output file names inside OutputDir.
const (
	PlainFile   = "qr_plain.png"
	ConsentFile = "qr_consent.png"
	GoodboyFile = "qr_goodboy.png"
)

// HistoryConfig controls the generation history database.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config holds all application configuration values.
type Config struct {
	OutputDir      string        `yaml:"output_dir"`
	SiteName       string        `yaml:"site_name"`
	BoxSize        int           `yaml:"box_size"`
	Border         int           `yaml:"border"`
	FillColor      string        `yaml:"fill_color"`
	BackColor      string        `yaml:"back_color"`
	Port           int           `yaml:"port"`
	DataDir        string        `yaml:"data_dir"`
	History        HistoryConfig `yaml:"history"`
	WebhookURL     string        `yaml:"webhook_url"`
	WebhookTimeout Duration      `yaml:"webhook_timeout"`
	LogLevel       string        `yaml:"log_level"`
}

// Duration is a wrapper around time.Duration that supports YAML unmarshalling
// from human-readable strings like "30s", "5m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Defaults returns a Config populated with the default values.
func Defaults() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return &Config{
		OutputDir:      "output_qr",
		SiteName:       "Demo Site",
		BoxSize:        10,
		Border:         4,
		FillColor:      "black",
		BackColor:      "white",
		Port:           8556,
		DataDir:        filepath.Join(homeDir, ".qrconsent"),
		History:        HistoryConfig{Enabled: true},
		WebhookTimeout: Duration{10 * time.Second},
		LogLevel:       "info",
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. A .env file in the working directory
// is loaded into the environment first (existing variables win), then
// QRC_ prefixed variables override any file or default values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading .env file: %w", err)
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies QRC_* environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QRC_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("QRC_SITE_NAME"); v != "" {
		cfg.SiteName = v
	}
	if v := os.Getenv("QRC_BOX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BoxSize = n
		}
	}
	if v := os.Getenv("QRC_BORDER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Border = n
		}
	}
	if v := os.Getenv("QRC_FILL_COLOR"); v != "" {
		cfg.FillColor = v
	}
	if v := os.Getenv("QRC_BACK_COLOR"); v != "" {
		cfg.BackColor = v
	}
	if v := os.Getenv("QRC_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("QRC_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("QRC_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("QRC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("QRC_HISTORY"); v != "" {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			cfg.History.Enabled = true
		case "false", "0", "no":
			cfg.History.Enabled = false
		}
	}
}

// Validate reports the first invalid field in c.
func (c *Config) Validate() error {
	if c.BoxSize <= 0 {
		return ErrInvalidBoxSize
	}
	if c.Border < 0 {
		return ErrInvalidBorder
	}
	if _, err := ParseColor(c.FillColor); err != nil {
		return fmt.Errorf("fill_color: %w", err)
	}
	if _, err := ParseColor(c.BackColor); err != nil {
		return fmt.Errorf("back_color: %w", err)
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}

// Colors returns the parsed fill and background colors. It assumes
// Validate has succeeded and falls back to black on white otherwise.
func (c *Config) Colors() (fill, back color.Color) {
	fill, err := ParseColor(c.FillColor)
	if err != nil {
		fill = color.Black
	}
	back, err = ParseColor(c.BackColor)
	if err != nil {
		back = color.White
	}
	return fill, back
}

// PlainPath is the output path of the plain QR image.
func (c *Config) PlainPath() string { return filepath.Join(c.OutputDir, PlainFile) }

// ConsentPath is the output path of the consent QR image.
func (c *Config) ConsentPath() string { return filepath.Join(c.OutputDir, ConsentFile) }

// GoodboyPath is the output path of the goodboy QR image.
func (c *Config) GoodboyPath() string { return filepath.Join(c.OutputDir, GoodboyFile) }

// HistoryPath is the location of the history database.
func (c *Config) HistoryPath() string { return filepath.Join(c.DataDir, "history.db") }

// EnsureOutputDir creates OutputDir if it does not already exist.
func (c *Config) EnsureOutputDir() error {
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", c.OutputDir, err)
	}
	return nil
}

// EnsureDataDir creates DataDir if it does not already exist.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir %s: %w", c.DataDir, err)
	}
	return nil
}

var namedColors = map[string]color.Color{
	"black": color.Black,
	"white": color.White,
	"red":   color.RGBA{R: 0xff, A: 0xff},
	"green": color.RGBA{G: 0x80, A: 0xff},
	"blue":  color.RGBA{B: 0xff, A: 0xff},
}

// ParseColor accepts a color name (black, white, red, green, blue) or a
// #rgb / #rrggbb hex string.
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrInvalidColor, s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("%w %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrInvalidColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
