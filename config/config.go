package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nomis52/signupboard/logging"
)

const (
	// EnvPrefix prefixes every environment override, e.g. SIGNUPBOARD_API_URL.
	EnvPrefix = "SIGNUPBOARD_"

	defaultListenAddr  = ":8080"
	defaultMaxSessions = 1000

	// Default monitoring settings
	defaultMetricsPrefix = "signupboard"
	defaultJobName       = "signupboard"

	// Default logging settings
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultLogOutput = "stderr"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config represents the complete application configuration
type Config struct {
	API        APIConfig        `yaml:"api"`
	Listener   ListenerConfig   `yaml:"listener"`
	Page       PageConfig       `yaml:"page"`
	Reload     ReloadConfig     `yaml:"reload"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    logging.Config   `yaml:"logging"`
}

// APIConfig holds the activities API settings
type APIConfig struct {
	// BaseURL is the scheme and host the activities API is served from
	BaseURL string `yaml:"base_url" env:"API_URL"`
}

// ListenerConfig holds HTTP server listener settings.
type ListenerConfig struct {
	// The listen address, defaults to :8080
	Addr string `yaml:"addr" env:"LISTEN_ADDR"`
	// TLSCert and TLSKey enable HTTPS when both are set
	TLSCert string `yaml:"tls_cert" env:"LISTEN_TLS_CERT"`
	TLSKey  string `yaml:"tls_key" env:"LISTEN_TLS_KEY"`
}

// PageConfig holds host page settings
type PageConfig struct {
	// Markup is an optional path to a host page replacing the embedded one
	Markup string `yaml:"markup" env:"PAGE_MARKUP"`
	// MaxSessions bounds the visitor pages kept at once, defaults to 1000
	MaxSessions int `yaml:"max_sessions" env:"PAGE_MAX_SESSIONS"`
}

// ReloadConfig controls scheduled page reloads
type ReloadConfig struct {
	// Schedule is a cron spec; empty disables scheduled reloads
	Schedule string `yaml:"schedule" env:"RELOAD_SCHEDULE"`
}

// MonitoringConfig holds metrics and monitoring settings
type MonitoringConfig struct {
	// VictoriaMetricsURL enables pushing CLI metrics when set
	VictoriaMetricsURL string `yaml:"victoriametrics_url" env:"VICTORIAMETRICS_URL"`
	MetricsPrefix      string `yaml:"metrics_prefix" env:"METRICS_PREFIX"`
	JobName            string `yaml:"jobname" env:"JOBNAME"`
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, fmt.Errorf("%w: api base_url is required", ErrInvalid))
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%w: api base_url %q must be an absolute URL", ErrInvalid, c.API.BaseURL))
	}
	if c.Listener.Addr == "" {
		errs = append(errs, fmt.Errorf("%w: listener addr is required", ErrInvalid))
	}
	if c.Page.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("%w: page max_sessions must not be negative", ErrInvalid))
	}
	if (c.Listener.TLSCert == "") != (c.Listener.TLSKey == "") {
		errs = append(errs, fmt.Errorf("%w: listener tls_cert and tls_key must be set together", ErrInvalid))
	}
	if c.Monitoring.VictoriaMetricsURL != "" {
		if u, err := url.Parse(c.Monitoring.VictoriaMetricsURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%w: victoriametrics_url %q must be an absolute URL", ErrInvalid, c.Monitoring.VictoriaMetricsURL))
		}
	}
	return errors.Join(errs...)
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.Listener.Addr == "" {
		c.Listener.Addr = defaultListenAddr
	}
	if c.Page.MaxSessions == 0 {
		c.Page.MaxSessions = defaultMaxSessions
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
}

// LoadDotEnv loads environment files into the process environment. Variables already set are
// kept. Missing files are skipped; with no arguments ./.env is tried.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// LoadConfig reads the YAML config file at path, applies SIGNUPBOARD_* environment overrides and
// defaults, and validates the result. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to open config file %s: %w", path, err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("failed to decode YAML config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
