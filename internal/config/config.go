package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default endpoints and tunables.
const (
	// DefaultOllamaBaseURL is the local Ollama server address.
	DefaultOllamaBaseURL = "http://localhost:11434"
	// DefaultModel is used when neither config nor environment name one.
	DefaultModel = "llama3.1"
	// DefaultHTTPTimeout caps a whole chat request. Generous because a full
	// lesson generation can stream for minutes on local hardware.
	DefaultHTTPTimeout = 10 * time.Minute
	// DefaultStreamIdleTimeout aborts a stream that produced no data for
	// this long. Protects against stalled connections, not slow models.
	DefaultStreamIdleTimeout = 120 * time.Second
	// DefaultUpdateInterval bounds the rate of UI-visible refreshes during
	// streaming and command execution.
	DefaultUpdateInterval = 300 * time.Millisecond
)

// Config holds the full application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Model   ModelConfig   `yaml:"model"`
	UI      UIConfig      `yaml:"ui"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the inference backend transport.
type APIConfig struct {
	OllamaBaseURL     string        `yaml:"ollama_base_url"`
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	StreamIdleTimeout time.Duration `yaml:"stream_idle_timeout"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryDelay        time.Duration `yaml:"retry_delay"`
}

// ModelConfig configures the selected model and sampling.
type ModelConfig struct {
	Name        string  `yaml:"name"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	// UpdateInterval is the minimum spacing between visible refreshes while
	// a response is streaming.
	UpdateInterval time.Duration `yaml:"update_interval"`
	Theme          string        `yaml:"theme"`
}

// StorageConfig configures where documents and conversations persist.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// LoggingConfig configures the log sink.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			OllamaBaseURL:     DefaultOllamaBaseURL,
			HTTPTimeout:       DefaultHTTPTimeout,
			StreamIdleTimeout: DefaultStreamIdleTimeout,
			MaxRetries:        2,
			RetryDelay:        time.Second,
		},
		Model: ModelConfig{
			Name:        DefaultModel,
			Temperature: 0.7,
		},
		UI: UIConfig{
			UpdateInterval: DefaultUpdateInterval,
			Theme:          "dark",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultDataDir resolves the per-user data directory.
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "lesson-builder")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lesson-builder"
	}
	return filepath.Join(home, ".local", "share", "lesson-builder")
}
