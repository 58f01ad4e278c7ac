package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the YAML file and an optional .env
// next to it.
const (
	EnvDBPath        = "SURVEYLINE_DB_PATH"
	EnvServerAddress = "SURVEYLINE_SERVER_ADDRESS"
	EnvLogLevel      = "SURVEYLINE_LOG_LEVEL"
)

// Algorithm defaults. pkg/segment and pkg/profile export the same values.
const (
	DefaultMaxBearingChange = 60.0  // degrees
	DefaultMaxDistance      = 10.0  // survey units
	DefaultNominalSpan      = 25.0  // profile distance across a break
	DefaultMaxLink          = 10.0  // longest drawn profile link
	DefaultMarginX          = 100.0 // profile offset past the northernmost point
	DefaultMarginY          = 50.0  // profile offset above the westernmost point
)

// Config holds the application configuration.
type Config struct {
	Segment SegmentConfig `yaml:"segment"`
	Profile ProfileConfig `yaml:"profile"`
	Drawing DrawingConfig `yaml:"drawing"`
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Server  ServerConfig  `yaml:"server"`
	Inbox   InboxConfig   `yaml:"inbox"`
}

// SegmentConfig holds the ground-line continuity policy.
type SegmentConfig struct {
	MaxBearingChange Angle    `yaml:"max_bearing_change"`
	MaxDistance      Distance `yaml:"max_distance"`
	Strict           bool     `yaml:"strict"` // Reject coincident consecutive points
}

// ProfileConfig holds elevation profile settings.
type ProfileConfig struct {
	NominalSpan Distance `yaml:"nominal_span"` // Substituted across breaks
	MaxLink     Distance `yaml:"max_link"`
	MarginX     Distance `yaml:"margin_x"`
	MarginY     Distance `yaml:"margin_y"`
}

// LabelOffset positions a text label relative to its point.
type LabelOffset struct {
	DX float64 `yaml:"dx"`
	DY float64 `yaml:"dy"`
	DZ float64 `yaml:"dz"`
}

// LayerConfig names the drawing layers.
type LayerConfig struct {
	Points        string `yaml:"points"`
	Runs          string `yaml:"runs"`
	Chains        string `yaml:"chains"`
	Profile       string `yaml:"profile"`
	ProfilePoints string `yaml:"profile_points"`
}

// DrawingConfig holds drafting style settings.
type DrawingConfig struct {
	TextHeight  float64     `yaml:"text_height"`
	NumberLabel LabelOffset `yaml:"number_label"`
	CodeLabel   LabelOffset `yaml:"code_label"`
	Layers      LayerConfig `yaml:"layers"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path      string   `yaml:"path"`
	Retention Duration `yaml:"retention"` // 0 keeps surveys forever
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string   `yaml:"address"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
}

// InboxConfig holds the directories the server polls for new survey files.
type InboxConfig struct {
	Paths      []string `yaml:"paths"`
	Extensions []string `yaml:"extensions"`
	Interval   Duration `yaml:"interval"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Segment: SegmentConfig{
			MaxBearingChange: DefaultMaxBearingChange,
			MaxDistance:      DefaultMaxDistance,
		},
		Profile: ProfileConfig{
			NominalSpan: DefaultNominalSpan,
			MaxLink:     DefaultMaxLink,
			MarginX:     DefaultMarginX,
			MarginY:     DefaultMarginY,
		},
		Drawing: DrawingConfig{
			TextHeight:  0.1,
			NumberLabel: LabelOffset{DX: -0.4, DY: 0.1, DZ: 0.2},
			CodeLabel:   LabelOffset{DX: 0.1, DY: 0.1, DZ: 0.2},
			Layers: LayerConfig{
				Points:        "POINTS",
				Runs:          "CROSS_SECTION",
				Chains:        "CHAINS",
				Profile:       "PROFILE",
				ProfilePoints: "PROFILE_POINTS",
			},
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/surveyline.db",
		},
		Server: ServerConfig{
			Address:      "localhost:8642",
			ReadTimeout:  Duration(15 * time.Second),
			WriteTimeout: Duration(30 * time.Second),
			MaxBodyBytes: 16 << 20,
		},
		Inbox: InboxConfig{
			Paths:      []string{},
			Extensions: []string{".txt", ".shp"},
			Interval:   Duration(5 * time.Second),
		},
	}
}

// Validate rejects settings the algorithms cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Segment.MaxBearingChange <= 0 {
		errs = append(errs, fmt.Errorf("segment.max_bearing_change must be positive, got %v", c.Segment.MaxBearingChange))
	}
	if c.Segment.MaxDistance <= 0 {
		errs = append(errs, fmt.Errorf("segment.max_distance must be positive, got %v", c.Segment.MaxDistance))
	}
	if c.Profile.NominalSpan <= 0 {
		errs = append(errs, fmt.Errorf("profile.nominal_span must be positive, got %v", c.Profile.NominalSpan))
	}
	if c.Profile.MaxLink <= 0 {
		errs = append(errs, fmt.Errorf("profile.max_link must be positive, got %v", c.Profile.MaxLink))
	}
	if len(c.Inbox.Paths) > 0 && c.Inbox.Interval <= 0 {
		errs = append(errs, fmt.Errorf("inbox.interval must be positive, got %v", time.Duration(c.Inbox.Interval)))
	}
	if c.Drawing.TextHeight <= 0 {
		errs = append(errs, fmt.Errorf("drawing.text_height must be positive, got %v", c.Drawing.TextHeight))
	}
	return errors.Join(errs...)
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// An existing file is merged over the defaults but never written back, so
// user formatting and comments survive.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	if err := applyEnv(cfg, filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv loads an optional .env file and applies the overrides.
// Variables already set in the process environment win over the file.
func applyEnv(cfg *Config, envPath string) error {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}

	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv(EnvServerAddress); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Server.Level = v
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# surveyline configuration
# ----------------------
# Supported Units:
#   Distance: mm, cm, m, km (bare numbers are metres)
#   Angle:    deg (bare numbers are degrees)
#   Duration: ms, s, m, h, d

`)
	data = append(header, data...)

	reSpan := regexp.MustCompile(`(?m)^(\s+)nominal_span:`)
	data = reSpan.ReplaceAll(data, []byte("${1}# Profile distance added across a break instead of the measured one\n${1}nominal_span:"))

	reRetention := regexp.MustCompile(`(?m)^(\s+)retention:`)
	data = reRetention.ReplaceAll(data, []byte("${1}# Surveys older than this are pruned at server start (0s disables)\n${1}retention:"))

	reLevel := regexp.MustCompile(`(?m)^(\s+)level:`)
	data = reLevel.ReplaceAll(data, []byte("${1}# Options: DEBUG, INFO, WARN, ERROR\n${1}level:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
