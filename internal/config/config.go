package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/screener/internal/model"
)

// Config is the root configuration for the screener gateway and CLI.
type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig
	RateLimit RateLimitConfig
	Client    ClientConfig
	Store     StoreConfig
	Presets   []model.Preset
}

// ServerConfig controls the gateway HTTP server.
type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	MaxBodyBytes      int64
	CORSOrigin        string // empty disables CORS
}

// UpstreamConfig identifies the model API the gateway forwards to.
type UpstreamConfig struct {
	BaseURL string
	Model   string
	APIKey  string // may be empty; the gateway then answers 500 per request
}

// RateLimitConfig controls per-client pacing at the gateway.
type RateLimitConfig struct {
	MinDelay time.Duration // minimum gap between requests from the same client
}

// ClientConfig controls CLI calls to a gateway.
type ClientConfig struct {
	GatewayURL string
	Retries    int
	RetryDelay time.Duration
}

// StoreConfig controls local persistence.
type StoreConfig struct {
	Path         string // sqlite file; empty disables persistence
	HistoryLimit int
}

const (
	defaultBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel        = "gemini-2.5-flash"
	defaultGatewayURL   = "http://localhost:8080"
	defaultStorePath    = "screener.db"
	defaultHistoryLimit = 50
	maxRetries          = 5
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Server    rawServerConfig    `yaml:"server"`
	Upstream  rawUpstreamConfig  `yaml:"upstream"`
	RateLimit rawRateLimitConfig `yaml:"rate_limit"`
	Client    rawClientConfig    `yaml:"client"`
	Store     rawStoreConfig     `yaml:"store"`
	Presets   []model.Preset     `yaml:"presets"`
}

type rawServerConfig struct {
	Addr              string `yaml:"addr"`
	ReadHeaderTimeout string `yaml:"read_header_timeout"`
	MaxBodyBytes      int64  `yaml:"max_body_bytes"`
	CORSOrigin        string `yaml:"cors_origin"`
}

type rawUpstreamConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

type rawClientConfig struct {
	GatewayURL string `yaml:"gateway_url"`
	Retries    *int   `yaml:"retries"`
	RetryDelay string `yaml:"retry_delay"`
}

type rawStoreConfig struct {
	Path         *string `yaml:"path"`
	HistoryLimit int     `yaml:"history_limit"`
}

// LoadDotEnv loads .env from the working directory into the process
// environment. A missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// FromEnv returns the configuration used when no config file exists.
func FromEnv() (*Config, error) {
	cfg := defaults()
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
// Values missing from the file fall back to the environment, then to built-in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := defaults()

	if raw.Server.Addr != "" {
		cfg.Server.Addr = raw.Server.Addr
	}
	if raw.Server.ReadHeaderTimeout != "" {
		cfg.Server.ReadHeaderTimeout, err = time.ParseDuration(raw.Server.ReadHeaderTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse server.read_header_timeout %q: %w", raw.Server.ReadHeaderTimeout, err)
		}
	}
	if raw.Server.MaxBodyBytes != 0 {
		cfg.Server.MaxBodyBytes = raw.Server.MaxBodyBytes
	}
	if raw.Server.CORSOrigin != "" {
		cfg.Server.CORSOrigin = raw.Server.CORSOrigin
	}

	if raw.Upstream.BaseURL != "" {
		cfg.Upstream.BaseURL = raw.Upstream.BaseURL
	}
	if raw.Upstream.Model != "" {
		cfg.Upstream.Model = raw.Upstream.Model
	}
	if raw.Upstream.APIKey != "" {
		cfg.Upstream.APIKey = raw.Upstream.APIKey
	}

	if raw.RateLimit.MinDelay != "" {
		cfg.RateLimit.MinDelay, err = time.ParseDuration(raw.RateLimit.MinDelay)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.min_delay %q: %w", raw.RateLimit.MinDelay, err)
		}
	}

	if raw.Client.GatewayURL != "" {
		cfg.Client.GatewayURL = raw.Client.GatewayURL
	}
	if raw.Client.Retries != nil {
		cfg.Client.Retries = *raw.Client.Retries
	}
	if raw.Client.RetryDelay != "" {
		cfg.Client.RetryDelay, err = time.ParseDuration(raw.Client.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("parse client.retry_delay %q: %w", raw.Client.RetryDelay, err)
		}
	}

	// An explicit empty path turns persistence off.
	if raw.Store.Path != nil {
		cfg.Store.Path = *raw.Store.Path
	}
	if raw.Store.HistoryLimit != 0 {
		cfg.Store.HistoryLimit = raw.Store.HistoryLimit
	}

	if len(raw.Presets) > 0 {
		cfg.Presets = raw.Presets
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}

	return &Config{
		Server: ServerConfig{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			MaxBodyBytes:      10 << 20,
			CORSOrigin:        os.Getenv("CORS_ORIGIN"),
		},
		Upstream: UpstreamConfig{
			BaseURL: envOr("UPSTREAM_BASE_URL", defaultBaseURL),
			Model:   envOr("UPSTREAM_MODEL", defaultModel),
			APIKey:  apiKey,
		},
		Client: ClientConfig{
			GatewayURL: envOr("GATEWAY_URL", defaultGatewayURL),
			RetryDelay: 2 * time.Second,
		},
		Store: StoreConfig{
			Path:         defaultStorePath,
			HistoryLimit: defaultHistoryLimit,
		},
		Presets: DefaultPresets(),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Server.ReadHeaderTimeout <= 0 {
		return fmt.Errorf("server.read_header_timeout must be positive, got %v", cfg.Server.ReadHeaderTimeout)
	}

	if err := checkHTTPURL("upstream.base_url", cfg.Upstream.BaseURL); err != nil {
		return err
	}
	if cfg.Upstream.Model == "" {
		return fmt.Errorf("upstream.model is required")
	}

	if cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative, got %v", cfg.RateLimit.MinDelay)
	}

	if err := checkHTTPURL("client.gateway_url", cfg.Client.GatewayURL); err != nil {
		return err
	}
	if cfg.Client.Retries < 0 || cfg.Client.Retries > maxRetries {
		return fmt.Errorf("client.retries must be between 0 and %d, got %d", maxRetries, cfg.Client.Retries)
	}
	if cfg.Client.RetryDelay < 0 {
		return fmt.Errorf("client.retry_delay must not be negative, got %v", cfg.Client.RetryDelay)
	}

	if cfg.Store.HistoryLimit <= 0 {
		return fmt.Errorf("store.history_limit must be positive, got %d", cfg.Store.HistoryLimit)
	}

	seen := make(map[string]bool, len(cfg.Presets))
	for i, p := range cfg.Presets {
		if p.Title == "" {
			return fmt.Errorf("presets[%d].title is required", i)
		}
		if seen[p.Title] {
			return fmt.Errorf("duplicate preset title %q", p.Title)
		}
		seen[p.Title] = true
	}

	return nil
}

func checkHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", field, raw)
	}
	return nil
}

// MaskKey renders a credential for logs: first four and last four characters.
func MaskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
