package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/shape-watch/internal/capture"
	"github.com/ironsheep/shape-watch/internal/detection"
	"github.com/ironsheep/shape-watch/internal/imaging"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0, cfg.Camera.Device)
	assert.Equal(t, capture.BackendAny, cfg.Camera.Backend)
	assert.Equal(t, imaging.ThresholdBinary, cfg.Preprocess.Method)
	assert.Equal(t, uint8(60), cfg.Preprocess.Level)
	assert.Equal(t, 1000.0, cfg.Detection.MinArea)
	assert.Equal(t, 5, cfg.Smoothing.Window)
	assert.Equal(t, "Frame", cfg.Display.FrameTitle)
	assert.Equal(t, "Threshold", cfg.Display.ThresholdTitle)
	assert.False(t, cfg.Display.Headless)
	assert.Empty(t, cfg.Journal.Path)
	assert.Empty(t, cfg.MQTT.Broker)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "shape-watch.yaml", `
log_level: debug
camera:
  device: 2
  backend: v4l2
  width: 640
  height: 480
preprocess:
  method: otsu
detection:
  min_area: 500
  sizes:
    small: 4000
    medium: 12000
smoothing:
  window: 8
display:
  headless: true
  max_width: 320
journal:
  path: /tmp/events.db
mqtt:
  broker: localhost:1883
  topic_prefix: lab
  publish_timeout: 500ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Camera.Device)
	assert.Equal(t, capture.BackendV4L2, cfg.Camera.Backend)
	assert.Equal(t, 640, cfg.Camera.Width)
	assert.Equal(t, imaging.ThresholdOtsu, cfg.Preprocess.Method)
	assert.Equal(t, 500.0, cfg.Detection.MinArea)
	assert.Equal(t, 4000.0, cfg.Detection.Sizes.Small)
	assert.Equal(t, 12000.0, cfg.Detection.Sizes.Medium)
	assert.Equal(t, 8, cfg.Smoothing.Window)
	assert.True(t, cfg.Display.Headless)
	assert.Equal(t, 320, cfg.Display.MaxWidth)
	assert.Equal(t, "/tmp/events.db", cfg.Journal.Path)
	assert.Equal(t, "localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "lab", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 500*time.Millisecond, cfg.MQTT.PublishTimeout)

	// Untouched keys keep their defaults.
	assert.Equal(t, uint8(60), cfg.Preprocess.Level)
	assert.Equal(t, 2, cfg.Preprocess.ErodeIterations)
	assert.Equal(t, detection.AreaContour, cfg.Detection.AreaMethod)
	assert.Equal(t, "Frame", cfg.Display.FrameTitle)
	assert.Equal(t, 5*time.Second, cfg.MQTT.ConnectTimeout)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "empty.yml", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("wrong extension", func(t *testing.T) {
		path := writeConfig(t, "config.json", "{}")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".yaml")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to stat")
	})

	t.Run("too large", func(t *testing.T) {
		body := "log_level: info\n" + "# " + strings.Repeat("x", maxFileSize) + "\n"
		path := writeConfig(t, "big.yaml", body)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("unknown key", func(t *testing.T) {
		path := writeConfig(t, "typo.yaml", "smoothing:\n  windw: 3\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "bad.yaml", "camera: [unterminated\n")
		_, err := Load(path)
		require.Error(t, err)
	})
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		EnvDevice:     "3",
		EnvLogLevel:   "WARN",
		EnvHeadless:   "true",
		EnvJournal:    "events.db",
		EnvMQTTBroker: "tcp://broker:1883",
	}))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Camera.Device)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Display.Headless)
	assert.Equal(t, "events.db", cfg.Journal.Path)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
}

func TestApplyEnv_UnsetLeavesValues(t *testing.T) {
	cfg := Default()
	cfg.Camera.Device = 4

	require.NoError(t, cfg.ApplyEnv(envMap(nil)))
	assert.Equal(t, 4, cfg.Camera.Device)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{EnvDevice: "front"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvDevice)

	err = cfg.ApplyEnv(envMap(map[string]string{EnvHeadless: "sometimes"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvHeadless)
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "env.yaml", "smoothing:\n  window: 3\n")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvDevice, "1")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvHeadless, "")
	t.Setenv(EnvJournal, "")
	t.Setenv(EnvMQTTBroker, "")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Smoothing.Window)
	assert.Equal(t, 1, cfg.Camera.Device)
}

func TestLoadFromEnv_InvalidResult(t *testing.T) {
	path := writeConfig(t, "env.yaml", "smoothing:\n  window: 0\n")
	t.Setenv(EnvConfig, path)

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
		{"negative device", func(c *Config) { c.Camera.Device = -1 }, "camera"},
		{"unknown backend", func(c *Config) { c.Camera.Backend = "firewire" }, "camera"},
		{"unknown method", func(c *Config) { c.Preprocess.Method = "magic" }, "preprocess"},
		{"negative min area", func(c *Config) { c.Detection.MinArea = -1 }, "detection"},
		{"zero window", func(c *Config) { c.Smoothing.Window = 0 }, "smoothing.window"},
		{"negative max width", func(c *Config) { c.Display.MaxWidth = -5 }, "max_width"},
		{"blocking key delay", func(c *Config) { c.Display.KeyDelay = 0 }, "key_delay"},
		{"headless ignores key delay", func(c *Config) {
			c.Display.Headless = true
			c.Display.KeyDelay = 0
		}, ""},
		{"negative replay frames", func(c *Config) { c.Replay.MaxFrames = -1 }, "max_frames"},
		{"mqtt wildcard prefix", func(c *Config) {
			c.MQTT.Broker = "localhost"
			c.MQTT.TopicPrefix = "lab/#"
		}, "mqtt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		got, err := cfg.SlogLevel()
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
