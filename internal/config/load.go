package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads, parses, and validates the YAML configuration file.
func LoadConfig(filename string) (*Config, error) {
	fileBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filename, err)
	}

	var config Config
	if err := yaml.Unmarshal(fileBytes, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in '%s': %w", filename, err)
	}

	ApplyDefaults(&config)

	if err := ValidateConfigManually(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ApplyDefaults fills the settings that have a sensible zero value.
func ApplyDefaults(config *Config) {
	if config.Retry.MaxAttempts <= 0 {
		config.Retry.MaxAttempts = 1
	}
	if config.Retry.Backoff == nil {
		backoff := DefaultBackoffSeconds
		config.Retry.Backoff = &backoff
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Batch.FailurePolicy == "" {
		config.Batch.FailurePolicy = FailurePolicyStop
	}
	if config.Batch.Concurrency <= 0 {
		config.Batch.Concurrency = 1
	}
	for name, p := range config.Providers {
		if p.Kind == "" {
			p.Kind = name
		}
		if p.AuthType == "" {
			p.AuthType = "client_api_key"
		}
		config.Providers[name] = p
	}
}
