package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from the config file and environment variables.
// The file is optional; environment variables win over file values.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			// Config file is optional, don't fail if it doesn't exist
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)

	return cfg, nil
}

// getConfigPath returns the path to the config file.
func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "lesson-builder", "config.yaml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "lesson-builder", "config.yaml")
}

// GetConfigPath returns the path to the config file (exported for external use).
func GetConfigPath() string {
	return getConfigPath()
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// loadFromEnv loads configuration overrides from environment variables.
func loadFromEnv(cfg *Config) {
	if baseURL := os.Getenv("LESSON_BUILDER_OLLAMA_URL"); baseURL != "" {
		cfg.API.OllamaBaseURL = baseURL
	}
	// OLLAMA_HOST is the conventional variable understood by the ollama CLI;
	// honor it when the app-specific one is absent.
	if cfg.API.OllamaBaseURL == DefaultOllamaBaseURL {
		if host := os.Getenv("OLLAMA_HOST"); host != "" {
			cfg.API.OllamaBaseURL = host
		}
	}

	if model := os.Getenv("LESSON_BUILDER_MODEL"); model != "" {
		cfg.Model.Name = model
	}

	if dataDir := os.Getenv("LESSON_BUILDER_DATA_DIR"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}

	if level := os.Getenv("LESSON_BUILDER_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.OllamaBaseURL == "" {
		return fmt.Errorf("api.ollama_base_url must not be empty")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must be >= 0")
	}
	if c.API.RetryDelay < 0 {
		return fmt.Errorf("api.retry_delay must be >= 0")
	}
	if c.API.StreamIdleTimeout < 0 {
		return fmt.Errorf("api.stream_idle_timeout must be >= 0")
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model.name must not be empty")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("model.temperature must be in [0, 2]")
	}
	if c.UI.UpdateInterval <= 0 {
		c.UI.UpdateInterval = DefaultUpdateInterval
	}
	if c.UI.UpdateInterval > 5*time.Second {
		return fmt.Errorf("ui.update_interval must be <= 5s")
	}
	return nil
}

// Save saves the configuration to the config file.
func (c *Config) Save() error {
	configPath := getConfigPath()
	if configPath == "" {
		return fmt.Errorf("could not determine config path")
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file atomically (write to temp file then rename)
	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		// If rename fails, try direct write (Windows filesystem)
		if err := os.WriteFile(configPath, data, 0600); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return nil
}
