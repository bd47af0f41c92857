package app

import "errors"

// Config holds everything an App instance needs for one invocation.
type Config struct {
	// ConfigPath is the root configuration file to resolve and run.
	ConfigPath string
	// Overrides maps dotted key paths to raw string values, applied after
	// merging and before variable resolution.
	Overrides map[string]string
	// Debug skips the code snapshot and runs under a DEBUG directory.
	Debug bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates an App configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
