package generate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults used by DefaultConfig.
const (
	DefaultEndpoint = "http://localhost:11434/api/generate"
	DefaultModel    = "llama3.2"
	DefaultTimeout  = 5 * time.Minute
)

// Config holds client configuration. It can be built in code or loaded from
// a YAML, TOML or JSON file with LoadConfig.
type Config struct {
	// Endpoint is the generate route, e.g. "http://localhost:11434/api/generate".
	Endpoint string `json:"endpoint" yaml:"endpoint" toml:"endpoint"`

	// Model is the model name sent with every request.
	Model string `json:"model" yaml:"model" toml:"model"`

	// System is the default system prompt.
	System string `json:"system" yaml:"system" toml:"system"`

	// Suffix is text that should follow the completion.
	Suffix string `json:"suffix" yaml:"suffix" toml:"suffix"`

	// Format is "" or "json". Use WithSchema for schema-constrained output.
	Format string `json:"format" yaml:"format" toml:"format"`

	// Raw disables the service's prompt templating.
	Raw bool `json:"raw" yaml:"raw" toml:"raw"`

	// KeepAlive controls how long the service keeps the model loaded ("5m").
	KeepAlive string `json:"keep_alive" yaml:"keep_alive" toml:"keep_alive"`

	// Options are model parameters (temperature, num_ctx, seed...).
	Options map[string]any `json:"options" yaml:"options" toml:"options"`

	// Timeout bounds a blocking Generate call. Streams are bounded by the
	// caller's context only. 0 disables the bound.
	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`

	// ContextWindow enables a prompt size check before sending:
	// > 0 is the limit in tokens, < 0 uses the model's known window, 0 disables.
	ContextWindow int `json:"context_window" yaml:"context_window" toml:"context_window"`
}

// DefaultConfig returns a Config pointing at a local service.
func DefaultConfig() Config {
	return Config{
		Endpoint: DefaultEndpoint,
		Model:    DefaultModel,
		Timeout:  DefaultTimeout,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := parseEndpoint(c.Endpoint); err != nil {
		return &Error{Op: "validate", Kind: ErrInvalidEndpoint, Err: err}
	}
	if strings.TrimSpace(c.Model) == "" {
		return &Error{Op: "validate", Kind: ErrEmptyModel}
	}
	switch c.Format {
	case "", "json":
	default:
		return &Error{Op: "validate", Kind: ErrInvalidRequest,
			Err: fmt.Errorf("unknown format %q, expected \"json\" or empty", c.Format)}
	}
	if c.Timeout < 0 {
		return &Error{Op: "validate", Kind: ErrInvalidRequest,
			Err: fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)}
	}
	return nil
}

// WithDefaults returns a copy of the config with defaults applied for unset fields.
func (c Config) WithDefaults() Config {
	defaults := DefaultConfig()
	if c.Endpoint == "" {
		c.Endpoint = defaults.Endpoint
	}
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

// LoadConfig reads a config file, choosing the decoder by extension
// (.yaml, .yml, .toml, .json). Fields missing from the file keep their
// DefaultConfig values. Durations are written as strings ("90s").
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		_, err = toml.Decode(string(data), &cfg)
	case ".json":
		err = decodeJSONConfig(data, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension %q", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// decodeJSONConfig decodes JSON with the timeout written as a duration string.
func decodeJSONConfig(data []byte, cfg *Config) error {
	type plain Config
	aux := struct {
		Timeout string `json:"timeout"`
		*plain
	}{plain: (*plain)(cfg)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Timeout != "" {
		d, err := time.ParseDuration(aux.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}
	return nil
}

// NewFromConfig creates a Client from cfg. Options are applied after the
// config, so they win over file settings.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := []Option{
		WithSystem(cfg.System),
		WithSuffix(cfg.Suffix),
		WithRaw(cfg.Raw),
		WithKeepAlive(cfg.KeepAlive),
		WithOptions(cfg.Options),
		WithTimeout(cfg.Timeout),
		WithContextWindow(cfg.ContextWindow),
	}
	if cfg.Format != "" {
		base = append(base, WithFormat(cfg.Format))
	}
	return New(cfg.Endpoint, cfg.Model, append(base, opts...)...)
}

// parseEndpoint accepts absolute http and https URLs with a host.
func parseEndpoint(endpoint string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", endpoint)
	}
	return u, nil
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP transport collaborator.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger. Sessions add session_id and model attributes.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records session outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithSystem sets the default system prompt.
func WithSystem(system string) Option {
	return func(c *Client) { c.defaults.System = system }
}

// WithSuffix sets text that should follow the completion.
func WithSuffix(suffix string) Option {
	return func(c *Client) { c.defaults.Suffix = suffix }
}

// WithFormat requests structured output. The only plain format is "json".
func WithFormat(format string) Option {
	return func(c *Client) {
		raw, err := json.Marshal(format)
		if err != nil {
			c.optErr = err
			return
		}
		c.defaults.Format = raw
	}
}

// WithRaw disables the service's prompt templating.
func WithRaw(raw bool) Option {
	return func(c *Client) { c.defaults.Raw = raw }
}

// WithKeepAlive sets how long the service keeps the model loaded.
func WithKeepAlive(d string) Option {
	return func(c *Client) { c.defaults.KeepAlive = d }
}

// WithOptions sets model parameters sent with every request.
func WithOptions(opts map[string]any) Option {
	return func(c *Client) {
		if len(opts) == 0 {
			return
		}
		if c.defaults.Options == nil {
			c.defaults.Options = make(map[string]any, len(opts))
		}
		for k, v := range opts {
			c.defaults.Options[k] = v
		}
	}
}

// WithTimeout bounds blocking Generate calls. 0 disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithContextWindow enables the prompt size check. n > 0 is the limit in
// tokens, n < 0 uses the known window of the model in effect, 0 disables.
func WithContextWindow(n int) Option {
	return func(c *Client) { c.contextWindow = n }
}
