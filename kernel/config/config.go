// Package config loads the boot configuration of the kernel.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gopheros/kcore/kernel/kfmt"
	"github.com/gopheros/kcore/kernel/mm/pmm"
	"github.com/gopheros/kcore/kernel/proc"
	"github.com/gopheros/kcore/kernel/security"
	"gopkg.in/yaml.v3"
)

// Config holds the boot configuration.
type Config struct {
	Memory    MemoryConfig  `yaml:"memory"`
	Processes ProcessConfig `yaml:"processes"`
	Monitor   MonitorConfig `yaml:"monitor"`
	Logging   LoggingConfig `yaml:"logging"`
}

// MemoryConfig configures the physical frame pool.
type MemoryConfig struct {
	Frames         uint32 `yaml:"frames"`
	ReservedFrames uint32 `yaml:"reserved_frames"`
}

// ProcessConfig configures the process table and the processes created at boot.
type ProcessConfig struct {
	Capacity  int      `yaml:"capacity"`
	Bootstrap []string `yaml:"bootstrap"` // security level names
}

// MonitorConfig configures the idle loop.
type MonitorConfig struct {
	TickInterval string `yaml:"tick_interval"`
	MaxTicks     uint64 `yaml:"max_ticks"` // 0 runs until cancelled
}

// LoggingConfig configures the kernel logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration: 1024 frames with none
// reserved, and one SYSTEM and one USER process at boot.
func Default() *Config {
	return &Config{
		Memory: MemoryConfig{
			Frames:         pmm.DefaultCapacity,
			ReservedFrames: 0,
		},
		Processes: ProcessConfig{
			Capacity:  proc.DefaultCapacity,
			Bootstrap: []string{security.System.String(), security.User.String()},
		},
		Monitor: MonitorConfig{
			TickInterval: "100ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration at path on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the kernel cannot boot with.
func (c *Config) Validate() error {
	if c.Memory.Frames == 0 {
		return fmt.Errorf("memory.frames must be positive")
	}
	if c.Memory.ReservedFrames > c.Memory.Frames {
		return fmt.Errorf("memory.reserved_frames (%d) exceeds memory.frames (%d)", c.Memory.ReservedFrames, c.Memory.Frames)
	}
	if c.Processes.Capacity <= 0 {
		return fmt.Errorf("processes.capacity must be positive")
	}
	if len(c.Processes.Bootstrap) > c.Processes.Capacity {
		return fmt.Errorf("processes.bootstrap lists %d processes but capacity is %d", len(c.Processes.Bootstrap), c.Processes.Capacity)
	}
	if _, err := c.BootstrapLevels(); err != nil {
		return err
	}
	if _, err := c.TickInterval(); err != nil {
		return err
	}
	if _, err := kfmt.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// BootstrapLevels returns the security levels of the processes created at boot.
func (c *Config) BootstrapLevels() ([]security.Level, error) {
	levels := make([]security.Level, 0, len(c.Processes.Bootstrap))
	for _, name := range c.Processes.Bootstrap {
		level, err := security.ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("processes.bootstrap: %s %q", err.Message, name)
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// TickInterval returns the parsed monitor tick interval.
func (c *Config) TickInterval() (time.Duration, error) {
	if c.Monitor.TickInterval == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.Monitor.TickInterval)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("monitor.tick_interval: invalid duration %q", c.Monitor.TickInterval)
	}
	return d, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
