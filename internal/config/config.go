package config

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"
)

var (
	mu  sync.Mutex
	cfg *Config
)

// GetConfig returns the application configuration as a singleton
func GetConfig() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if cfg != nil {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("logging.level", "info")
	v.SetDefault("simulation.frame_count", 1200)
	v.SetDefault("simulation.grid_version", "6.2")
	v.SetDefault("simulation.output_dir", "out")
	v.SetDefault("server.port", 8080)

	if err := v.ReadInConfig(); err != nil {
		cfg = nil
		return nil, fmt.Errorf("failed to read config file: %s", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		cfg = nil
		return nil, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	if err := cfg.Validate(); err != nil {
		cfg = nil
		return nil, fmt.Errorf("failed to validate config: %s", err)
	}

	if cfg == nil {
		return nil, errors.New("failed to load configuration")
	}

	return cfg, nil
}

// Reset resets the configuration singleton, useful for testing
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cfg = nil
}

// Validate checks the config to error on empty field
func (cfg *Config) Validate() error {
	if cfg.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if cfg.App.Version == "" {
		return fmt.Errorf("app.version is required")
	}

	if cfg.Logging.Level == "" {
		return fmt.Errorf("logging.level is required")
	}

	if cfg.Simulation.TrackFile == "" {
		return fmt.Errorf("simulation.track_file is required")
	}

	if _, err := os.Stat(cfg.Simulation.TrackFile); err != nil {
		return fmt.Errorf("simulation.track_file is invalid: %s", err)
	}

	if cfg.Simulation.FrameCount < 0 {
		return fmt.Errorf("simulation.frame_count must not be negative")
	}

	switch cfg.Simulation.GridVersion {
	case "6.0", "6.1", "6.2", "6.7":
	default:
		return fmt.Errorf("simulation.grid_version %q is not a known version", cfg.Simulation.GridVersion)
	}

	return nil
}
