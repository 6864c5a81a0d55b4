// Package config loads shape-watch settings from an optional YAML file and
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/shape-watch/internal/capture"
	"github.com/ironsheep/shape-watch/internal/detection"
	"github.com/ironsheep/shape-watch/internal/events"
	"github.com/ironsheep/shape-watch/internal/imaging"
	"github.com/ironsheep/shape-watch/internal/smoothing"
)

// Environment variables read by ApplyEnv and LoadFromEnv.
const (
	EnvConfig     = "SHAPEWATCH_CONFIG"
	EnvDevice     = "SHAPEWATCH_DEVICE"
	EnvLogLevel   = "SHAPEWATCH_LOG_LEVEL"
	EnvHeadless   = "SHAPEWATCH_HEADLESS"
	EnvJournal    = "SHAPEWATCH_JOURNAL"
	EnvMQTTBroker = "SHAPEWATCH_MQTT_BROKER"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the complete shape-watch configuration.
type Config struct {
	LogLevel   string                    `yaml:"log_level"`
	Camera     capture.CameraOptions     `yaml:"camera"`
	Preprocess imaging.PreprocessOptions `yaml:"preprocess"`
	Detection  detection.DetectorOptions `yaml:"detection"`
	Smoothing  SmoothingConfig           `yaml:"smoothing"`
	Display    DisplayConfig             `yaml:"display"`
	Replay     ReplayConfig              `yaml:"replay"`
	Journal    JournalConfig             `yaml:"journal"`
	MQTT       events.MQTTOptions        `yaml:"mqtt"`
}

// SmoothingConfig sizes the label history.
type SmoothingConfig struct {
	Window int `yaml:"window"` // frames that must agree before a label is shown
}

// DisplayConfig controls the on-screen windows.
type DisplayConfig struct {
	Headless       bool                 `yaml:"headless"`
	FrameTitle     string               `yaml:"frame_title"`
	ThresholdTitle string               `yaml:"threshold_title"`
	Overlay        imaging.OverlayStyle `yaml:"overlay"`
	MaxWidth       int                  `yaml:"max_width"` // 0 keeps full resolution
	KeyDelay       int                  `yaml:"key_delay"` // milliseconds per frame
}

// ReplayConfig controls directory playback.
type ReplayConfig struct {
	Loop      bool `yaml:"loop"`
	MaxFrames int  `yaml:"max_frames"`
}

// JournalConfig locates the SQLite event journal. An empty path disables it.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		Camera:     capture.DefaultCameraOptions(),
		Preprocess: imaging.DefaultPreprocessOptions(),
		Detection:  detection.DefaultDetectorOptions(),
		Smoothing:  SmoothingConfig{Window: smoothing.DefaultCapacity},
		Display: DisplayConfig{
			FrameTitle:     "Frame",
			ThresholdTitle: "Threshold",
			Overlay:        imaging.DefaultOverlayStyle(),
			KeyDelay:       1,
		},
		MQTT: events.DefaultMQTTOptions(),
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values; unknown keys are rejected. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	cleanPath := filepath.Clean(path)
	if ext := strings.ToLower(filepath.Ext(cleanPath)); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads the file named by SHAPEWATCH_CONFIG (if any), applies the
// environment overrides and validates the result.
func LoadFromEnv() (*Config, error) {
	cfg, err := Load(os.Getenv(EnvConfig))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. Unset or empty
// variables leave the field alone.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvDevice); v != "" {
		device, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDevice, v, err)
		}
		c.Camera.Device = device
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := getenv(EnvHeadless); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvHeadless, v, err)
		}
		c.Display.Headless = headless
	}
	if v := getenv(EnvJournal); v != "" {
		c.Journal.Path = v
	}
	if v := getenv(EnvMQTTBroker); v != "" {
		c.MQTT.Broker = v
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if err := c.Camera.Validate(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	if err := c.Preprocess.Validate(); err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if c.Smoothing.Window < 1 {
		return fmt.Errorf("smoothing.window must be >= 1, got %d", c.Smoothing.Window)
	}
	if c.Display.MaxWidth < 0 {
		return fmt.Errorf("display.max_width must be >= 0, got %d", c.Display.MaxWidth)
	}
	// WaitKey(0) blocks until a key is pressed.
	if !c.Display.Headless && c.Display.KeyDelay < 1 {
		return fmt.Errorf("display.key_delay must be >= 1 ms, got %d", c.Display.KeyDelay)
	}
	if c.Replay.MaxFrames < 0 {
		return fmt.Errorf("replay.max_frames must be >= 0, got %d", c.Replay.MaxFrames)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	return nil
}

// SlogLevel parses LogLevel. An empty level means info.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return level, nil
}
