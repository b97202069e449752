package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"radiocalico/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("PORT", "")
	t.Setenv("RADIOCALICO_ADMIN_TOKEN", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "radiocalico")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.DatabasePath != filepath.Join(wantData, "radiocalico.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.DatabasePath)
	}
	if cfg.Client.IdentityPath != filepath.Join(wantData, "identity") {
		t.Fatalf("unexpected identity path: %q", cfg.Client.IdentityPath)
	}
	if cfg.Server.Bind != "127.0.0.1:5000" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.Server.AdminToken != "" {
		t.Fatalf("expected admin token empty by default, got %q", cfg.Server.AdminToken)
	}
	if len(cfg.Stream.Variants) != 3 || !strings.HasSuffix(cfg.Stream.Variants[0].URL, "aac_hifi.m3u8") {
		t.Fatalf("unexpected default variants: %+v", cfg.Stream.Variants)
	}
	if cfg.MetadataPollInterval().Seconds() != 5 {
		t.Fatalf("unexpected poll interval: %s", cfg.MetadataPollInterval())
	}
	if cfg.FallbackDelay().Seconds() != 2 {
		t.Fatalf("unexpected fallback delay: %s", cfg.FallbackDelay())
	}
	if cfg.LockPath() != cfg.Paths.DatabasePath+".lock" {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, filepath.Dir(cfg.Paths.DatabasePath)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "radiocalico.toml")

	type payload struct {
		Paths struct {
			DatabasePath string `toml:"database_path"`
		} `toml:"paths"`
		Server struct {
			Bind              string   `toml:"bind"`
			AdminToken        string   `toml:"admin_token"`
			CORSOrigins       []string `toml:"cors_origins"`
			RateLimitRequests int      `toml:"rate_limit_requests"`
		} `toml:"server"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.DatabasePath = filepath.Join(tempDir, "ratings.db")
	custom.Server.Bind = "0.0.0.0:8080"
	custom.Server.AdminToken = "  secret  "
	custom.Server.CORSOrigins = []string{"https://radio.example.com", " "}
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.DatabasePath != custom.Paths.DatabasePath {
		t.Fatalf("expected database path from file, got %q", cfg.Paths.DatabasePath)
	}
	if cfg.Server.Bind != "0.0.0.0:8080" {
		t.Fatalf("expected bind override, got %q", cfg.Server.Bind)
	}
	if cfg.Server.AdminToken != "secret" {
		t.Fatalf("expected trimmed admin token, got %q", cfg.Server.AdminToken)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://radio.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.RateLimitRequests != 0 {
		t.Fatalf("expected explicit zero rate limit to disable limiting, got %d", cfg.Server.RateLimitRequests)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected lowercased log format, got %q", cfg.Logging.Format)
	}
}

func TestEnvFallbacks(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	dbPath := filepath.Join(tempDir, "env", "radio.db")
	t.Setenv("DATABASE_PATH", dbPath)
	t.Setenv("PORT", "3000")
	t.Setenv("RADIOCALICO_ADMIN_TOKEN", "env-token")

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DatabasePath != dbPath {
		t.Errorf("expected database path from env, got %q", cfg.Paths.DatabasePath)
	}
	if cfg.Server.Bind != ":3000" {
		t.Errorf("expected bind from PORT, got %q", cfg.Server.Bind)
	}
	if cfg.Server.AdminToken != "env-token" {
		t.Errorf("expected admin token from env, got %q", cfg.Server.AdminToken)
	}
}

func TestFileValuesWinOverEnvFallbacks(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "radiocalico.toml")
	fileDB := filepath.Join(tempDir, "file.db")
	contents := "[paths]\ndatabase_path = \"" + filepath.ToSlash(fileDB) + "\"\n\n[server]\nbind = \"127.0.0.1:9000\"\nadmin_token = \"file-token\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DATABASE_PATH", filepath.Join(tempDir, "env.db"))
	t.Setenv("PORT", "3000")
	t.Setenv("RADIOCALICO_ADMIN_TOKEN", "env-token")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DatabasePath != fileDB {
		t.Errorf("expected database path from file, got %q", cfg.Paths.DatabasePath)
	}
	if cfg.Server.Bind != "127.0.0.1:9000" {
		t.Errorf("expected bind from file, got %q", cfg.Server.Bind)
	}
	if cfg.Server.AdminToken != "file-token" {
		t.Errorf("expected admin token from file, got %q", cfg.Server.AdminToken)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "admin_token") {
		t.Fatalf("sample config missing admin token entry: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if len(cfg.Stream.Variants) != 3 {
		t.Fatalf("expected three stream variants in sample, got %d", len(cfg.Stream.Variants))
	}
	if cfg.Stream.Variants[2].Name != "FLAC Lossless" {
		t.Fatalf("unexpected last variant: %+v", cfg.Stream.Variants[2])
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(configPath, []byte("[server\nbind ="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Default()
		cfg.Paths.DatabasePath = "/tmp/radiocalico.db"
		return cfg
	}

	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}

	cases := map[string]func(*config.Config){
		"missing database":    func(c *config.Config) { c.Paths.DatabasePath = "" },
		"negative rate limit": func(c *config.Config) { c.Server.RateLimitRequests = -1 },
		"zero window":         func(c *config.Config) { c.Server.RateLimitWindowSeconds = 0 },
		"zero poll":           func(c *config.Config) { c.Stream.MetadataPollSeconds = 0 },
		"zero fallback":       func(c *config.Config) { c.Stream.FallbackDelaySeconds = 0 },
		"bad variant url":     func(c *config.Config) { c.Stream.Variants[0].URL = "ftp://example.com/x.m3u8" },
		"bad api url":         func(c *config.Config) { c.Client.APIURL = "localhost:5000" },
		"zero timeout":        func(c *config.Config) { c.Client.RequestTimeoutSeconds = 0 },
		"bad log format":      func(c *config.Config) { c.Logging.Format = "xml" },
		"bad log level":       func(c *config.Config) { c.Logging.Level = "trace" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}

	disabled := valid()
	disabled.Server.RateLimitRequests = 0
	disabled.Server.RateLimitWindowSeconds = 0
	if err := disabled.Validate(); err != nil {
		t.Fatalf("expected disabled rate limiting to validate, got %v", err)
	}
}
