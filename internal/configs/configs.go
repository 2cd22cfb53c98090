/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings come from an optional YAML file and are then overridden by operating system
environment variables: the running environment, the chat backend URL, the session
file location, the polling period, request timeouts and client-side throttling.
*/
package configs

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultServerURL is where the reference backend listens when started locally.
	DefaultServerURL = "http://localhost:5000"

	// DefaultPollInterval is the message refresh period of the room view.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultRequestTimeout bounds every backend call.
	DefaultRequestTimeout = 10 * time.Second

	// MinPollInterval keeps a misconfigured client from hammering the backend.
	MinPollInterval = 50 * time.Millisecond
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Settings
	Environment string `yaml:"environment"`
	LogFile     string `yaml:"log_file"`

	// Backend Settings
	ServerURL      string        `yaml:"server_url"`
	AuthScheme     string        `yaml:"auth_scheme"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RequestRate    float64       `yaml:"request_rate"`
	RequestBurst   int           `yaml:"request_burst"`

	// Client State Settings
	SessionFile  string        `yaml:"session_file"`
	PollInterval time.Duration `yaml:"poll_interval"`
	StartPath    string        `yaml:"start_path"`

	// Debug Server Settings
	DebugAddr string `yaml:"debug_addr"`
}

// IsDevelopment reports whether the client runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// DefaultConfig returns the configuration used when neither a file nor the environment set a value.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Environment:    "development",
		ServerURL:      DefaultServerURL,
		RequestTimeout: DefaultRequestTimeout,
		RequestRate:    20,
		RequestBurst:   10,
		SessionFile:    defaultSessionFile(),
		PollInterval:   DefaultPollInterval,
		StartPath:      "/",
	}
}

// defaultSessionFile places the session record under the user's home directory.
func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".watchparty", "session.json")
	}
	return filepath.Join(home, ".watchparty", "session.json")
}

// LoadConfig reads the YAML file at path (skipped when path is empty), applies environment
// overrides and validates the result. It returns a pointer to the AppConfig struct and any error encountered.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides cfg with every environment variable that is set.
func applyEnv(cfg *AppConfig) error {
	// --- General Settings ---
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("CHAT_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	// --- Backend Settings ---
	if v := os.Getenv("CHAT_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v, ok := os.LookupEnv("CHAT_AUTH_SCHEME"); ok {
		cfg.AuthScheme = v
	}
	if v := os.Getenv("CHAT_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CHAT_REQUEST_TIMEOUT environment variable: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if v := os.Getenv("CHAT_REQUEST_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CHAT_REQUEST_RATE environment variable: %w", err)
		}
		cfg.RequestRate = r
	}
	if v := os.Getenv("CHAT_REQUEST_BURST"); v != "" {
		b, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CHAT_REQUEST_BURST environment variable: %w", err)
		}
		cfg.RequestBurst = b
	}

	// --- Client State Settings ---
	if v := os.Getenv("CHAT_SESSION_FILE"); v != "" {
		cfg.SessionFile = v
	}
	if v := os.Getenv("CHAT_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CHAT_POLL_INTERVAL environment variable: %w", err)
		}
		cfg.PollInterval = d
	}

	// --- Debug Server Settings ---
	if v := os.Getenv("CHAT_DEBUG_ADDR"); v != "" {
		cfg.DebugAddr = v
	}

	return nil
}

// Validate checks that the configuration is usable.
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server url %q must be an absolute http(s) URL", c.ServerURL)
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")

	if c.PollInterval < MinPollInterval {
		return fmt.Errorf("poll interval %s is below the minimum of %s", c.PollInterval, MinPollInterval)
	}

	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}

	if c.RequestRate < 0 || c.RequestBurst < 0 {
		return errors.New("request rate and burst must not be negative")
	}

	if c.StartPath == "" {
		c.StartPath = "/"
	}
	if !strings.HasPrefix(c.StartPath, "/") {
		return fmt.Errorf("start path %q must begin with /", c.StartPath)
	}

	return nil
}
