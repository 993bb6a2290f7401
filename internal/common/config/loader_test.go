package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: mergington\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "mergington", cfg.App.Name)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, ":8000", cfg.Server.Addr())
	assert.Equal(t, "static", cfg.Server.StaticDir)
	assert.False(t, cfg.Registry.EnforceCapacity)
	assert.False(t, cfg.Registry.RejectDuplicates)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Notifications.Enabled())
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REGISTRY_ENFORCE_CAPACITY", "true")
	t.Setenv("SIGNUP_REDIS_ADDR", "localhost:6390")

	path := writeConfig(t, `
database:
  redis:
    address: ${SIGNUP_REDIS_ADDR}
rate_limit:
  enabled: true
  requests: 5
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Registry.EnforceCapacity)
	assert.Equal(t, "localhost:6390", cfg.Database.Redis.Address)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
}

func TestLoadFromFile_PortVariable(t *testing.T) {
	t.Setenv("PORT", "8123")
	path := writeConfig(t, "server:\n  port: 8000\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.Server.Port)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "rate limit without redis",
			mutate:  func(c *Config) { c.RateLimit.Enabled = true; c.RateLimit.Requests = 1 },
			wantErr: "database.redis.address",
		},
		{
			name: "rate limit without budget",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.Database.Redis.Address = "localhost:6379"
			},
			wantErr: "rate_limit.requests",
		},
		{
			name:    "audit without postgres",
			mutate:  func(c *Config) { c.Audit.Enabled = true },
			wantErr: "database.postgres.host",
		},
		{
			name: "audit with postgres",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Database.Postgres.Host = "db"
				c.Database.Postgres.Database = "signup"
				c.Database.Postgres.User = "signup"
			},
		},
		{
			name:    "email without region",
			mutate:  func(c *Config) { c.Notifications.Email.Enabled = true },
			wantErr: "notifications.aws.region",
		},
		{
			name: "email without sender",
			mutate: func(c *Config) {
				c.Notifications.Email.Enabled = true
				c.Notifications.AWS.Region = "us-east-1"
			},
			wantErr: "from_email",
		},
		{
			name: "events without topic",
			mutate: func(c *Config) {
				c.Notifications.Events.Enabled = true
				c.Notifications.AWS.Region = "us-east-1"
			},
			wantErr: "topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "signup", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=signup sslmode=disable", p.GetDSN())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
