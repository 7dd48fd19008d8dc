package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg := Config{API: APIConfig{BaseURL: "http://api:8000"}}
		cfg.SetDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.API.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.API.BaseURL = "/activities" },
			wantErr: true,
		},
		{
			name:    "missing listen addr",
			mutate:  func(c *Config) { c.Listener.Addr = "" },
			wantErr: true,
		},
		{
			name:    "negative max sessions",
			mutate:  func(c *Config) { c.Page.MaxSessions = -1 },
			wantErr: true,
		},
		{
			name:   "tls pair",
			mutate: func(c *Config) { c.Listener.TLSCert, c.Listener.TLSKey = "cert.pem", "key.pem" },
		},
		{
			name:    "tls cert without key",
			mutate:  func(c *Config) { c.Listener.TLSCert = "cert.pem" },
			wantErr: true,
		},
		{
			name:   "victoriametrics url",
			mutate: func(c *Config) { c.Monitoring.VictoriaMetricsURL = "http://vm:8428" },
		},
		{
			name:    "bad victoriametrics url",
			mutate:  func(c *Config) { c.Monitoring.VictoriaMetricsURL = "vm" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateReportsAllProblems(t *testing.T) {
	cfg := Config{Monitoring: MonitoringConfig{VictoriaMetricsURL: "vm"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url is required")
	assert.Contains(t, err.Error(), "listener addr is required")
	assert.Contains(t, err.Error(), "victoriametrics_url")
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	assert.Equal(t, ":8080", cfg.Listener.Addr)
	assert.Equal(t, 1000, cfg.Page.MaxSessions)
	assert.Equal(t, "signupboard", cfg.Monitoring.MetricsPrefix)
	assert.Equal(t, "signupboard", cfg.Monitoring.JobName)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Empty(t, cfg.Reload.Schedule)
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "signupboard.yaml", `api:
  base_url: http://api.mergington.edu
listener:
  addr: 127.0.0.1:9000
page:
  markup: /srv/index.html
  max_sessions: 50
reload:
  schedule: "*/5 * * * *"
logging:
  level: debug
  format: text
monitoring:
  victoriametrics_url: http://vm:8428
  jobname: board
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://api.mergington.edu", cfg.API.BaseURL)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listener.Addr)
	assert.Equal(t, "/srv/index.html", cfg.Page.Markup)
	assert.Equal(t, 50, cfg.Page.MaxSessions)
	assert.Equal(t, "*/5 * * * *", cfg.Reload.Schedule)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, "http://vm:8428", cfg.Monitoring.VictoriaMetricsURL)
	assert.Equal(t, "board", cfg.Monitoring.JobName)
	assert.Equal(t, "signupboard", cfg.Monitoring.MetricsPrefix)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeFile(t, "signupboard.yaml", `api:
  base_url: http://from-file
listener:
  addr: :9000
`)
	t.Setenv("SIGNUPBOARD_API_URL", "http://from-env:8000")
	t.Setenv("SIGNUPBOARD_LOG_LEVEL", "warn")
	t.Setenv("SIGNUPBOARD_RELOAD_SCHEDULE", "@hourly")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:8000", cfg.API.BaseURL)
	assert.Equal(t, ":9000", cfg.Listener.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "@hourly", cfg.Reload.Schedule)
}

func TestLoadConfig_EnvOnly(t *testing.T) {
	t.Setenv("SIGNUPBOARD_API_URL", "http://localhost:8000")
	t.Setenv("SIGNUPBOARD_LISTEN_ADDR", ":7000")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, ":7000", cfg.Listener.Addr)
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.yaml", "")
	t.Setenv("SIGNUPBOARD_API_URL", "http://localhost:8000")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listener.Addr)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
	t.Run("bad yaml", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "bad.yaml", "api: [oops"))
		assert.ErrorContains(t, err, "failed to decode YAML config")
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "invalid.yaml", "listener:\n  addr: :1\n"))
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "SIGNUPBOARD_TEST_DOTENV=from-file\nSIGNUPBOARD_TEST_KEEP=from-file\n")
	t.Setenv("SIGNUPBOARD_TEST_KEEP", "from-env")
	// Registers cleanup for the variable the file sets.
	t.Setenv("SIGNUPBOARD_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("SIGNUPBOARD_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("SIGNUPBOARD_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("SIGNUPBOARD_TEST_KEEP"))
}
