package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"APP_ENV":     "",
		"PORT":        "",
		"DATA_DIR":    "",
		"ADMIN_TOKEN": "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "data", cfg.DataDir)
	require.False(t, cfg.StrictRates)
	require.Equal(t, 300, cfg.RateLimitRPM)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"APP_ENV":              "production",
		"PORT":                 "9090",
		"DATA_DIR":             "/var/lib/vzuttia",
		"ADMIN_TOKEN":          "s3cret",
		"STRICT_RATES":         "true",
		"RATE_LIMIT_RPM":       "60",
		"CORS_ALLOWED_ORIGINS": "https://app.example.com, https://admin.example.com",
	})
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.True(t, cfg.StrictRates)
	require.Equal(t, 60, cfg.RateLimitRPM)
	require.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestProductionRequiresAdminToken(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"APP_ENV":     "production",
		"DATA_DIR":    "/var/lib/vzuttia",
		"ADMIN_TOKEN": "",
	})
	require.Error(t, err)
}
