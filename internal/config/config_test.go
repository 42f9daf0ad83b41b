package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/dom/group-decide/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(*testing.T, *config.Config)
	}{
		{
			name: "defaults",
			env:  map[string]string{"JWT_SECRET": "secret"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "8080", cfg.Port)
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, config.StoreBackendPostgres, cfg.StoreBackend)
				assert.Equal(t, 24, cfg.JWTExpirationHours)
				assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
				assert.False(t, cfg.IsProduction())
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"JWT_SECRET":           "secret",
				"PORT":                 "9090",
				"ENVIRONMENT":          "production",
				"STORE_BACKEND":        "memory",
				"JWT_EXPIRATION_HOURS": "2",
				"SHUTDOWN_TIMEOUT":     "5s",
			},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "9090", cfg.Port)
				assert.Equal(t, config.StoreBackendMemory, cfg.StoreBackend)
				assert.Equal(t, 2, cfg.JWTExpirationHours)
				assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
				assert.True(t, cfg.IsProduction())
			},
		},
		{
			name:    "missing jwt secret",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"JWT_SECRET": "secret", "STORE_BACKEND": "mongo"},
			wantErr: true,
		},
		{
			name:    "malformed number",
			env:     map[string]string{"JWT_SECRET": "secret", "JWT_EXPIRATION_HOURS": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"PORT", "ENVIRONMENT", "STORE_BACKEND", "DATABASE_URL", "JWT_SECRET", "JWT_EXPIRATION_HOURS", "SHUTDOWN_TIMEOUT"} {
				// Setenv restores the original value on cleanup.
				t.Setenv(key, "")
				os.Unsetenv(key)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := config.Parse()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
