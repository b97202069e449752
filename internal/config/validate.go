package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStream(); err != nil {
		return err
	}
	if err := c.validateClient(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		return errors.New("paths.database_path must be set (or export DATABASE_PATH)")
	}
	return nil
}

func (c *Config) validateServer() error {
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind must be set")
	}
	if c.Server.RateLimitRequests < 0 {
		return errors.New("server.rate_limit_requests must be >= 0 (0 disables rate limiting)")
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindowSeconds <= 0 {
		return errors.New("server.rate_limit_window_seconds must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateStream() error {
	if err := ensurePositiveMap(map[string]int{
		"stream.metadata_poll_seconds":  c.Stream.MetadataPollSeconds,
		"stream.fallback_delay_seconds": c.Stream.FallbackDelaySeconds,
	}); err != nil {
		return err
	}
	if c.Stream.MetadataURL != "" {
		if err := validateHTTPURL("stream.metadata_url", c.Stream.MetadataURL); err != nil {
			return err
		}
	}
	for i, variant := range c.Stream.Variants {
		if err := validateHTTPURL(fmt.Sprintf("stream.variants[%d].url", i), variant.URL); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateClient() error {
	if err := validateHTTPURL("client.api_url", c.Client.APIURL); err != nil {
		return err
	}
	if c.Client.RequestTimeoutSeconds <= 0 {
		return errors.New("client.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(key, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, value)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
