package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "openrouter/auto"
)

// Config holds the user-level settings loaded from ~/.parley/config.json,
// overridable by environment variables.
type Config struct {
	APIKey             string            `json:"api_key,omitempty" env:"OPENROUTER_API_KEY"`
	BaseURL            string            `json:"base_url,omitempty" env:"PARLEY_BASE_URL"`
	DefaultModel       string            `json:"default_model" env:"PARLEY_MODEL"`
	Models             map[string]string `json:"models,omitempty"`
	SystemPrompt       string            `json:"system_prompt"`
	Temperature        float64           `json:"temperature"`
	MaxTokens          int               `json:"max_tokens,omitempty"`
	TimeoutSeconds     int               `json:"timeout"`
	HistorySize        int               `json:"history_size"`
	MaxRetries         int               `json:"max_retries"`
	RetryInitialDelay  float64           `json:"retry_initial_delay"`
	RetryBackoffFactor float64           `json:"retry_backoff_factor"`
	MaxToolIterations  int               `json:"max_tool_iterations"`
	RequestsPerMinute  int               `json:"requests_per_minute,omitempty"`
	ModelCapabilities  map[string]bool   `json:"model_capabilities,omitempty"`
	LogLevel           string            `json:"log_level,omitempty" env:"PARLEY_LOG_LEVEL"`
	LogFile            string            `json:"log_file,omitempty" env:"PARLEY_LOG_FILE"`
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:      DefaultBaseURL,
		DefaultModel: DefaultModel,
		Models: map[string]string{
			"default":  DefaultModel,
			"thinking": DefaultModel,
		},
		SystemPrompt:       "You are a helpful assistant.",
		Temperature:        0.7,
		TimeoutSeconds:     30,
		HistorySize:        50,
		MaxRetries:         3,
		RetryInitialDelay:  1.0,
		RetryBackoffFactor: 2.0,
		MaxToolIterations:  10,
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate reports the errors that must abort startup.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("no OpenRouter API key found: set OPENROUTER_API_KEY or add api_key to the config file")
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetModel returns the model configured for a task type, falling back to
// the default model.
func (c *Config) GetModel(taskType string) string {
	if m, ok := c.Models[taskType]; ok && m != "" {
		return m
	}
	return c.DefaultModel
}

// SetModel assigns a model to a task type; assigning "default" also
// updates DefaultModel.
func (c *Config) SetModel(taskType, model string) {
	if c.Models == nil {
		c.Models = map[string]string{}
	}
	c.Models[taskType] = model
	if taskType == "default" {
		c.DefaultModel = model
	}
}
