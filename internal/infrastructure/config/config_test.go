package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var keys = []string{
	"SERVER_HOST", "SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME", "OTEL_ENVIRONMENT",
	"BACKEND_BASE_URL", "BACKEND_TIMEOUT",
	"FORM_PAGE_SIZE", "FORM_PAGE_SIZE_OPTIONS",
	"LOG_LEVEL", "LOG_FILE", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS", "LOG_MAX_AGE_DAYS",
	"CORS_ALLOWED_ORIGINS", "CORS_ALLOWED_METHODS", "CORS_ALLOWED_HEADERS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadConfig()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.OTLP.Enabled)
	assert.Equal(t, "products-form", cfg.OTLP.ServiceName)
	assert.Equal(t, "http://localhost:8000/api", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5, cfg.Form.DefaultPageSize)
	assert.Equal(t, []int{5, 10, 20}, cfg.Form.PageSizeOptions)
	assert.Empty(t, cfg.Log.File)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("BACKEND_BASE_URL", "https://shop.example.com/api")
	t.Setenv("BACKEND_TIMEOUT", "2s")
	t.Setenv("FORM_PAGE_SIZE", "10")
	t.Setenv("FORM_PAGE_SIZE_OPTIONS", " 10, 25 ,50,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.False(t, cfg.OTLP.Enabled)
	assert.Equal(t, "https://shop.example.com/api", cfg.Backend.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 10, cfg.Form.DefaultPageSize)
	assert.Equal(t, []int{10, 25, 50}, cfg.Form.PageSizeOptions)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestMalformedValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("OTEL_ENABLED", "maybe")
	t.Setenv("BACKEND_TIMEOUT", "10")
	t.Setenv("FORM_PAGE_SIZE", "five")
	t.Setenv("FORM_PAGE_SIZE_OPTIONS", "5,ten,20")

	cfg := LoadConfig()

	assert.True(t, cfg.OTLP.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5, cfg.Form.DefaultPageSize)
	assert.Equal(t, []int{5, 10, 20}, cfg.Form.PageSizeOptions)
}
