package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Storefront
// ============================================

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STOREFRONT_API_BASE_URL", "")
	t.Setenv("STOREFRONT_STORAGE", "")
	t.Setenv("STOREFRONT_HTTP_TIMEOUT", "")
	t.Setenv("STOREFRONT_ORIGIN", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("STOREFRONT_TRACE_STDOUT", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "sqlite:file:storefront.db", cfg.StorageDSN)
	assert.NotEmpty(t, cfg.Origin)
	assert.False(t, cfg.FeedEnabled())
	assert.False(t, cfg.TraceStdout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STOREFRONT_API_BASE_URL", "https://shop.example.com/api/")
	t.Setenv("STOREFRONT_STORAGE", "memory:")
	t.Setenv("STOREFRONT_HTTP_TIMEOUT", "3s")
	t.Setenv("STOREFRONT_ORIGIN", "tab-1")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("KAFKA_TOPIC", "shop-storage")
	t.Setenv("STOREFRONT_TRACE_STDOUT", "true")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/api/", cfg.APIBaseURL)
	assert.Equal(t, "memory:", cfg.StorageDSN)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "tab-1", cfg.Origin)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "shop-storage", cfg.KafkaTopic)
	assert.True(t, cfg.FeedEnabled())
	assert.True(t, cfg.TraceStdout)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_TIMEOUT", "soon")
	t.Setenv("STOREFRONT_TRACE_STDOUT", "maybe")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.TraceStdout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"relative base url", map[string]string{"STOREFRONT_API_BASE_URL": "/api/"}},
		{"negative timeout", map[string]string{"STOREFRONT_HTTP_TIMEOUT": "-1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

// ============================================
// DevAPI
// ============================================

func TestLoadDevAPI(t *testing.T) {
	secret := strings.Repeat("s", 32)

	tests := []struct {
		name    string
		secret  string
		wantErr error
	}{
		{"missing secret", "", ErrMissingJWTSecret},
		{"short secret", "too-short", ErrShortJWTSecret},
		{"valid secret", secret, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("PORT", "")
			t.Setenv("SESSION_TTL", "")
			t.Setenv("IMAGE_BASE_URL", "")

			cfg, err := LoadDevAPI()

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "8000", cfg.Port)
			assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
			assert.Equal(t, "http://localhost:8000", cfg.ImageBase)
		})
	}
}
