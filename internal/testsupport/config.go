package testsupport

import (
	"path/filepath"
	"testing"

	"radiocalico/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Rate limiting is disabled so tests can issue bursts of requests.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "data", "radiocalico.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Client.IdentityPath = filepath.Join(base, "data", "identity")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Server.RateLimitRequests = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithAdminToken enables the admin routes behind token.
func WithAdminToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.AdminToken = token
	}
}

// WithRateLimit enables per-IP rate limiting.
func WithRateLimit(requests, windowSeconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.RateLimitRequests = requests
		b.cfg.Server.RateLimitWindowSeconds = windowSeconds
	}
}

// WithTrustedProxyHeaders keys rate limiting on forwarded client addresses.
func WithTrustedProxyHeaders() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.TrustProxyHeaders = true
	}
}

// WithAPIURL points client commands at a test server.
func WithAPIURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Client.APIURL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
