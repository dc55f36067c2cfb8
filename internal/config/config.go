package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET environment variable is required")
	ErrShortJWTSecret   = errors.New("JWT_SECRET must be at least 32 characters long")
)

const minJWTSecretLength = 32

// Storefront is the configuration of the command-line storefront. It is read
// once at startup.
type Storefront struct {
	// Remote API
	APIBaseURL  string
	HTTPTimeout time.Duration

	// Persistence
	StorageDSN       string
	StorageNamespace string

	// Cross-context change feed. Disabled when KafkaBrokers is empty.
	Origin       string
	KafkaBrokers []string
	KafkaTopic   string

	// Telemetry
	TraceStdout bool
}

// FeedEnabled reports whether a Kafka change feed is configured.
func (c *Storefront) FeedEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads the storefront configuration from the environment.
func Load() (*Storefront, error) {
	cfg := &Storefront{
		APIBaseURL:       getEnvString("STOREFRONT_API_BASE_URL", "http://localhost:8000/api/"),
		HTTPTimeout:      getEnvDuration("STOREFRONT_HTTP_TIMEOUT", 10*time.Second),
		StorageDSN:       getEnvString("STOREFRONT_STORAGE", "sqlite:file:storefront.db"),
		StorageNamespace: getEnvString("STOREFRONT_STORAGE_NAMESPACE", "storefront"),
		Origin:           getEnvString("STOREFRONT_ORIGIN", defaultOrigin()),
		KafkaBrokers:     getEnvList("KAFKA_BROKERS"),
		KafkaTopic:       getEnvString("KAFKA_TOPIC", "storefront-storage"),
		TraceStdout:      getEnvBool("STOREFRONT_TRACE_STDOUT", false),
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid STOREFRONT_API_BASE_URL %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("STOREFRONT_HTTP_TIMEOUT must be positive, got %s", cfg.HTTPTimeout)
	}

	return cfg, nil
}

// DevAPI is the configuration of the development backend.
type DevAPI struct {
	Port       string
	JWTSecret  string
	SessionTTL time.Duration
	// ImageBase is prepended to seeded product image paths.
	ImageBase   string
	TraceStdout bool
}

// LoadDevAPI reads the development backend configuration. JWT_SECRET is
// required.
func LoadDevAPI() (*DevAPI, error) {
	cfg := &DevAPI{
		Port:        getEnvString("PORT", "8000"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		SessionTTL:  getEnvDuration("SESSION_TTL", 24*time.Hour),
		TraceStdout: getEnvBool("STOREFRONT_TRACE_STDOUT", false),
	}
	cfg.ImageBase = getEnvString("IMAGE_BASE_URL", "http://localhost:"+cfg.Port)

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if len(cfg.JWTSecret) < minJWTSecretLength {
		return nil, ErrShortJWTSecret
	}
	return cfg, nil
}

func defaultOrigin() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "storefront"
	}
	return host + "-" + uuid.NewString()[:8]
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
