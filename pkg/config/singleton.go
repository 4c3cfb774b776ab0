package config

import (
	"fmt"
	"sync"
)

var (
	// current holds the process-wide configuration.
	current *Config

	// currentPath is the file current was loaded from.
	currentPath string

	// currentMu protects current and currentPath.
	currentMu sync.RWMutex
)

// Initialize loads configuration from path with environment overrides and
// stores it as the process-wide configuration.
func Initialize(path string) (*Config, error) {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}

	currentMu.Lock()
	current = cfg
	currentPath = path
	currentMu.Unlock()

	return cfg, nil
}

// GetConfig returns the process-wide configuration, or nil if Initialize
// has not succeeded. Callers must treat the result as read-only.
func GetConfig() *Config {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetConfig replaces the process-wide configuration. Intended for tests.
func SetConfig(cfg *Config) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = cfg
}

// ReloadConfig reloads the file passed to Initialize. The stored
// configuration is replaced only if loading and validation succeed; on
// failure the previous configuration stays in effect.
func ReloadConfig() (*Config, error) {
	currentMu.RLock()
	path := currentPath
	currentMu.RUnlock()

	if path == "" {
		return nil, fmt.Errorf("failed to reload configuration: not initialized")
	}

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	currentMu.Lock()
	current = cfg
	currentMu.Unlock()

	return cfg, nil
}
