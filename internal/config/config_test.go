package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		env      map[string]string
		expected func(t *testing.T, cfg *Config)
	}{
		{
			name: "given full config should unmarshal every section",
			content: `
application:
  env: development
  port: 9090
profile:
  base_url: http://profile:8080
  timeout: 3s
breaker:
  failure_ratio: 0.25
mirror:
  driver: memory
  ttl: 1h
session:
  idle_ttl: 10m
  max_quantity: 20
`,
			expected: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Application.Env)
				assert.Equal(t, 9090, cfg.Application.Port)
				assert.Equal(t, "http://profile:8080", cfg.Profile.BaseURL)
				assert.Equal(t, 3*time.Second, cfg.Profile.Timeout)
				assert.InDelta(t, 0.25, cfg.Breaker.FailureRatio, 0.0001)
				assert.Equal(t, MirrorDriverMemory, cfg.Mirror.Driver)
				assert.Equal(t, time.Hour, cfg.Mirror.TTL)
				assert.Equal(t, 10*time.Minute, cfg.Session.IdleTTL)
				assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
				assert.Equal(t, 20, cfg.Session.MaxQuantity)
			},
		},
		{
			name:    "given empty config should fall back to defaults",
			content: "application:\n  env: production\n",
			expected: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Application.Port)
				assert.Equal(t, 10*time.Second, cfg.Profile.Timeout)
				assert.Equal(t, MirrorDriverRedis, cfg.Mirror.Driver)
				assert.Equal(t, "storefront:session", cfg.Mirror.KeyPrefix)
				assert.EqualValues(t, 5, cfg.Breaker.MaxRequests)
				assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
				assert.Equal(t, 99, cfg.Session.MaxQuantity)
			},
		},
		{
			name:    "given environment override should prefer environment",
			content: "profile:\n  base_url: http://from-file\n",
			env:     map[string]string{"PROFILE_BASE_URL": "http://from-env"},
			expected: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "http://from-env", cfg.Profile.BaseURL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			err := os.WriteFile(filepath.Join(dir, "storefront.yaml"), []byte(tt.content), 0o600)
			require.NoError(t, err)

			cfg, err := Load(dir, "storefront")
			require.NoError(t, err)
			tt.expected(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "missing")
	assert.Error(t, err)
}
