package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, cfg *Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sphere.yaml")
	require.NoError(t, WriteConfig(cfg, path))
	return path
}

func TestGeneratedConfigRoundTrips(t *testing.T) {
	path := writeConfig(t, GenerateConfig())

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, StorageBadger, cfg.Storage.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Security.LoginBlockDuration)
	assert.Equal(t, int64(5<<20), cfg.Uploads.MaxBytes)
	assert.True(t, cfg.Sessions.Required())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, ErrConfigFileMissing)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("httpBinding: [unclosed"), 0600))
	_, err = LoadConfig(bad)
	assert.ErrorIs(t, err, ErrConfigFileUnmarshallable)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"no secret", func(c *Config) { c.InstanceSecret = "" }, ErrInstanceSecretMissing},
		{"no binding", func(c *Config) { c.HttpBinding = "" }, ErrHttpBindingMissing},
		{"badger without dir", func(c *Config) { c.DataDir = "" }, ErrDataDirMissing},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "etcd" }, ErrStorageBackendInvalid},
		{"redis without url", func(c *Config) {
			c.Storage.Backend = StorageRedis
			c.Storage.RedisURL = ""
		}, ErrRedisURLMissing},
		{"half tls", func(c *Config) { c.TLS.Cert = "server.crt" }, ErrTLSMissing},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, ErrLogFormatInvalid},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, ErrLogLevelInvalid},
		{"bcrypt too cheap", func(c *Config) { c.Security.BcryptCost = 2 }, ErrBcryptCostInvalid},
		{"no auth limiter", func(c *Config) { c.RateLimiters.Auth.Limit = 0 }, ErrRateLimitersAuthLimitMissing},
		{"no upload limiter", func(c *Config) { c.RateLimiters.Upload.Limit = 0 }, ErrRateLimitersUploadLimitMissing},
		{"uploads over 5 MiB", func(c *Config) { c.Uploads.MaxBytes = MaxUploadBytes + 1 }, ErrUploadsMaxBytesTooLarge},
		{"in-memory store with 5 MiB uploads", func(c *Config) { c.Storage.InMemory = true }, ErrInMemoryUploadsTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GenerateConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}

	t.Run("in-memory badger needs no dir", func(t *testing.T) {
		cfg := GenerateConfig()
		cfg.DataDir = ""
		cfg.Storage.InMemory = true
		cfg.Uploads.MaxBytes = InMemoryMaxUploadBytes
		assert.NoError(t, cfg.Validate())
	})

	t.Run("in-memory redis flag is ignored for the upload ceiling", func(t *testing.T) {
		cfg := GenerateConfig()
		cfg.Storage.Backend = StorageRedis
		cfg.Storage.InMemory = true
		assert.NoError(t, cfg.Validate())
	})
}

func TestDefaultsFillOptionalFields(t *testing.T) {
	cfg := &Config{
		InstanceSecret: "s",
		HttpBinding:    ":0",
		DataDir:        "d",
		RateLimiters:   GenerateConfig().RateLimiters,
	}
	cfg.applyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, 3, cfg.Security.MaxLoginFailures)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Security.LoginFailureRetention)
	assert.Equal(t, int64(MaxUploadBytes), cfg.Uploads.MaxBytes)
}

func TestSessionsDefaultToEnforced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sphere.yaml")
	raw := `instanceSecret: s
httpBinding: ":0"
dataDir: d
rateLimiters:
  auth: {limit: 1, burst: 1}
  content: {limit: 1, burst: 1}
  admin: {limit: 1, burst: 1}
  upload: {limit: 1, burst: 1}
  default: {limit: 1, burst: 1}
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0600))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Sessions.RequireSession)
	assert.True(t, cfg.Sessions.Required())

	off := strings.Replace(raw, "dataDir: d\n", "dataDir: d\nsessions:\n  requireSession: false\n", 1)
	require.NoError(t, os.WriteFile(path, []byte(off), 0600))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Sessions.Required())
}

func TestInMemoryUploadDefault(t *testing.T) {
	cfg := &Config{
		InstanceSecret: "s",
		HttpBinding:    ":0",
		Storage:        Storage{InMemory: true},
		RateLimiters:   GenerateConfig().RateLimiters,
	}
	cfg.applyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, int64(InMemoryMaxUploadBytes), cfg.Uploads.MaxBytes)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvInstanceSecret, "from-env")
	t.Setenv(EnvAdminPassword, "envpass1")
	t.Setenv(EnvHttpBinding, "0.0.0.0:9999")

	cfg, err := LoadConfig(writeConfig(t, GenerateConfig()))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.InstanceSecret)
	assert.Equal(t, "envpass1", cfg.Admin.Password)
	assert.Equal(t, "0.0.0.0:9999", cfg.HttpBinding)
}

func TestLoadEnvFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(EnvRedisURL+"=redis://example:6379/1\n"), 0600))

	t.Setenv(EnvRedisURL, "")
	os.Unsetenv(EnvRedisURL)

	require.NoError(t, LoadEnvFiles(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "redis://example:6379/1", os.Getenv(EnvRedisURL))
}
