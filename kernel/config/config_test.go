package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopheros/kcore/kernel/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, uint32(1024), cfg.Memory.Frames)
	assert.Zero(t, cfg.Memory.ReservedFrames)

	levels, err := cfg.BootstrapLevels()
	require.NoError(t, err)
	assert.Equal(t, []security.Level{security.System, security.User}, levels)

	interval, err := cfg.TickInterval()
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, interval)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
memory:
  frames: 256
  reserved_frames: 16
processes:
  capacity: 8
  bootstrap: [kernel, user, user]
monitor:
  tick_interval: 5ms
  max_ticks: 10
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(256), cfg.Memory.Frames)
	assert.Equal(t, uint32(16), cfg.Memory.ReservedFrames)
	assert.Equal(t, 8, cfg.Processes.Capacity)
	assert.Equal(t, uint64(10), cfg.Monitor.MaxTicks)
	assert.Equal(t, "debug", cfg.Logging.Level)

	levels, err := cfg.BootstrapLevels()
	require.NoError(t, err)
	assert.Equal(t, []security.Level{security.Kernel, security.User, security.User}, levels)
}

func TestLoadKeepsUnsetDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "memory:\n  reserved_frames: 4\n"))
	require.NoError(t, err)

	assert.Equal(t, uint32(1024), cfg.Memory.Frames)
	assert.Equal(t, uint32(4), cfg.Memory.ReservedFrames)
	assert.Len(t, cfg.Processes.Bootstrap, 2)
}

func TestValidate(t *testing.T) {
	specs := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"zero frames", func(c *Config) { c.Memory.Frames = 0 }, "memory.frames"},
		{"reserved exceeds frames", func(c *Config) { c.Memory.ReservedFrames = 2048 }, "exceeds memory.frames"},
		{"zero capacity", func(c *Config) { c.Processes.Capacity = 0 }, "processes.capacity"},
		{"too many bootstrap processes", func(c *Config) { c.Processes.Capacity = 1 }, "capacity is 1"},
		{"unknown level", func(c *Config) { c.Processes.Bootstrap = []string{"root"} }, `unknown security level "root"`},
		{"bad interval", func(c *Config) { c.Monitor.TickInterval = "soon" }, "monitor.tick_interval"},
		{"negative interval", func(c *Config) { c.Monitor.TickInterval = "-1s" }, "monitor.tick_interval"},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }, "logging.level"},
	}

	for _, spec := range specs {
		t.Run(spec.name, func(t *testing.T) {
			cfg := Default()
			spec.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), spec.errMsg)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	_, err = Load(writeConfig(t, "memory: [unbalanced"))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = Load(writeConfig(t, "memory:\n  frames: 8\n  reserved_frames: 9\n"))
	assert.ErrorContains(t, err, "exceeds memory.frames")
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "reserved_frames: 0")

	cfg, err := Load(writeConfig(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestEmptyTickInterval(t *testing.T) {
	cfg := Default()
	cfg.Monitor.TickInterval = ""
	d, err := cfg.TickInterval()
	require.NoError(t, err)
	assert.Zero(t, d)
}
