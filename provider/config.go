package provider

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for creating a provider Client.
// Backend-specific settings go in Options.
type Config struct {
	// Provider is the registered backend name. Required.
	Provider string `json:"provider" yaml:"provider"`

	// Endpoint is the backend URL, for HTTP backends.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Model is the model to use (backend-specific name).
	Model string `json:"model" yaml:"model"`

	// SystemPrompt is sent with every request that doesn't set its own.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`

	// Timeout bounds a blocking completion. 0 uses the backend default.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Options holds backend-specific configuration.
	//
	// generate:
	//   - "format": "json"
	//   - "keep_alive": string (e.g. "5m")
	//   - "suffix": string
	//   - "raw": bool
	//   - "context_window": int (0 disables, -1 uses the model's known window)
	//   - "model_options": map[string]any (temperature, num_ctx, ...)
	Options map[string]any `json:"options" yaml:"options"`
}

// DefaultConfig returns a Config with defaults. Provider must still be set.
func DefaultConfig() Config {
	return Config{
		Timeout: 5 * time.Minute,
	}
}

// LoadFromEnv overrides fields from GENSTREAM_* environment variables:
//   - GENSTREAM_PROVIDER
//   - GENSTREAM_ENDPOINT
//   - GENSTREAM_MODEL
//   - GENSTREAM_SYSTEM_PROMPT
//   - GENSTREAM_TIMEOUT (e.g. "90s"; unparseable values are ignored)
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("GENSTREAM_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("GENSTREAM_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("GENSTREAM_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("GENSTREAM_SYSTEM_PROMPT"); v != "" {
		c.SystemPrompt = v
	}
	if v := os.Getenv("GENSTREAM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
}

// FromEnv creates a Config from defaults overridden by the environment.
func FromEnv() Config {
	cfg := DefaultConfig()
	cfg.LoadFromEnv()
	return cfg
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("%w: provider is required", ErrInvalidRequest)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must be >= 0, got %v", ErrInvalidRequest, c.Timeout)
	}
	return nil
}

// WithProvider returns a copy of the config with the specified provider.
func (c Config) WithProvider(provider string) Config {
	c.Provider = provider
	return c
}

// WithEndpoint returns a copy of the config with the specified endpoint.
func (c Config) WithEndpoint(endpoint string) Config {
	c.Endpoint = endpoint
	return c
}

// WithModel returns a copy of the config with the specified model.
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// WithOption returns a copy of the config with one option set.
// The original Options map is left untouched.
func (c Config) WithOption(key string, value any) Config {
	opts := make(map[string]any, len(c.Options)+1)
	for k, v := range c.Options {
		opts[k] = v
	}
	opts[key] = value
	c.Options = opts
	return c
}

// GetStringOption retrieves a string option, returning defaultVal if unset.
func (c Config) GetStringOption(key, defaultVal string) string {
	if v, ok := c.Options[key].(string); ok {
		return v
	}
	return defaultVal
}

// GetBoolOption retrieves a bool option, returning defaultVal if unset.
func (c Config) GetBoolOption(key string, defaultVal bool) bool {
	if v, ok := c.Options[key].(bool); ok {
		return v
	}
	return defaultVal
}

// GetIntOption retrieves an int option, returning defaultVal if unset.
// Numeric strings are accepted so values from env files work.
func (c Config) GetIntOption(key string, defaultVal int) int {
	switch v := c.Options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

// GetMapOption retrieves a nested map option, or nil if unset.
func (c Config) GetMapOption(key string) map[string]any {
	if v, ok := c.Options[key].(map[string]any); ok {
		return v
	}
	return nil
}
