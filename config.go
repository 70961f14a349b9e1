package smg

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

//go:embed default_config.toml
var defaultConfigData []byte

// Config holds the engine configuration as read from TOML.
type Config struct {
	Checks  ChecksConfig  `toml:"checks"`
	Machine MachineConfig `toml:"machine"`
	Log     LogConfig     `toml:"log"`
}

// ChecksConfig controls consistency checking.
type ChecksConfig struct {
	Strict bool `toml:"strict"`
}

// MachineConfig describes the target machine.
type MachineConfig struct {
	PointerWidth int64 `toml:"pointer_width"`
	LittleEndian bool  `toml:"little_endian"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the embedded default configuration.
func DefaultConfig() (*Config, error) {
	config, err := ParseConfig(defaultConfigData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	return config, nil
}

// ParseConfig decodes a TOML configuration on top of the defaults.
// Keys missing from data keep their default values.
func ParseConfig(data []byte) (*Config, error) {
	config := Config{
		Machine: MachineConfig{PointerWidth: Width64, LittleEndian: true},
		Log:     LogConfig{Level: "warn"},
	}
	if _, err := toml.Decode(string(data), &config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return config, nil
}

// Validate returns an error if the configuration cannot be used.
func (c *Config) Validate() error {
	switch c.Machine.PointerWidth {
	case Width16, Width32, Width64:
	default:
		return fmt.Errorf("invalid pointer width: %d", c.Machine.PointerWidth)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// Options returns graph options for the configuration. Diagnostics are
// written by logger at the configured level.
func (c *Config) Options(logger *logrus.Logger) (Options, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return Options{}, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	return Options{
		PerformChecks: c.Checks.Strict,
		MachineModel: MachineModel{
			PointerWidth:   c.Machine.PointerWidth,
			IsLittleEndian: c.Machine.LittleEndian,
		},
		Logger: logger,
	}, nil
}
