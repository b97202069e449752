package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains data, database, and log locations.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	DatabasePath string `toml:"database_path"`
	LogDir       string `toml:"log_dir"`
}

// Server contains configuration for the rating API server.
type Server struct {
	Bind                   string   `toml:"bind"`
	AdminToken             string   `toml:"admin_token"`
	CORSOrigins            []string `toml:"cors_origins"`
	RateLimitRequests      int      `toml:"rate_limit_requests"`
	RateLimitWindowSeconds int      `toml:"rate_limit_window_seconds"`
	MetricsEnabled         bool     `toml:"metrics_enabled"`
	TrustProxyHeaders      bool     `toml:"trust_proxy_headers"`
}

// StreamVariant names one HLS playlist the widget may fall back to.
type StreamVariant struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// Stream contains the live stream and now-playing metadata endpoints.
type Stream struct {
	MetadataURL          string          `toml:"metadata_url"`
	AlbumArtURL          string          `toml:"album_art_url"`
	Variants             []StreamVariant `toml:"variants"`
	MetadataPollSeconds  int             `toml:"metadata_poll_seconds"`
	FallbackDelaySeconds int             `toml:"fallback_delay_seconds"`
}

// Client contains configuration for CLI commands that talk to the API.
type Client struct {
	APIURL                string `toml:"api_url"`
	IdentityPath          string `toml:"identity_path"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for RadioCalico.
//
// Configuration sections by subsystem:
//   - Paths: data directory, SQLite database file, log directory
//   - Server: API bind address, admin token, CORS, rate limiting, metrics
//   - Stream: HLS variants and the now-playing metadata feed
//   - Client: API base URL and the persisted listener identity
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Server  Server  `toml:"server"`
	Stream  Stream  `toml:"stream"`
	Client  Client  `toml:"client"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("radiocalico.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories plus the parent of
// the database and identity files.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.DatabasePath),
		filepath.Dir(c.Client.IdentityPath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the lock file guarding the database against a second server.
func (c *Config) LockPath() string {
	return c.Paths.DatabasePath + ".lock"
}

// RateLimitWindow returns the rate limiting window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.Server.RateLimitWindowSeconds) * time.Second
}

// MetadataPollInterval returns the fixed delay between now-playing fetches.
func (c *Config) MetadataPollInterval() time.Duration {
	return time.Duration(c.Stream.MetadataPollSeconds) * time.Second
}

// FallbackDelay returns the fixed delay before trying the next stream variant.
func (c *Config) FallbackDelay() time.Duration {
	return time.Duration(c.Stream.FallbackDelaySeconds) * time.Second
}

// RequestTimeout returns the HTTP timeout used by API clients.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Client.RequestTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
