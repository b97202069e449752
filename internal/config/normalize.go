package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeStream()
	if err := c.normalizeClient(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.DatabasePath = strings.TrimSpace(c.Paths.DatabasePath)
	if c.Paths.DatabasePath == "" {
		if value, ok := os.LookupEnv("DATABASE_PATH"); ok && strings.TrimSpace(value) != "" {
			c.Paths.DatabasePath = strings.TrimSpace(value)
		} else {
			c.Paths.DatabasePath = filepath.Join(c.Paths.DataDir, defaultDatabaseFile)
		}
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" || c.Server.Bind == defaultBind {
		if port, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(port) != "" {
			c.Server.Bind = ":" + strings.TrimSpace(port)
		}
	}
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}

	c.Server.AdminToken = strings.TrimSpace(c.Server.AdminToken)
	if c.Server.AdminToken == "" {
		if value, ok := os.LookupEnv("RADIOCALICO_ADMIN_TOKEN"); ok {
			c.Server.AdminToken = strings.TrimSpace(value)
		}
	}

	origins := make([]string, 0, len(c.Server.CORSOrigins))
	for _, origin := range c.Server.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.Server.CORSOrigins = origins
}

func (c *Config) normalizeStream() {
	c.Stream.MetadataURL = strings.TrimSpace(c.Stream.MetadataURL)
	c.Stream.AlbumArtURL = strings.TrimSpace(c.Stream.AlbumArtURL)

	variants := make([]StreamVariant, 0, len(c.Stream.Variants))
	for _, variant := range c.Stream.Variants {
		variant.Name = strings.TrimSpace(variant.Name)
		variant.URL = strings.TrimSpace(variant.URL)
		if variant.URL == "" {
			continue
		}
		if variant.Name == "" {
			variant.Name = variant.URL
		}
		variants = append(variants, variant)
	}
	c.Stream.Variants = variants
	if len(c.Stream.Variants) == 0 {
		c.Stream.Variants = defaultStreamVariants()
	}
}

func (c *Config) normalizeClient() error {
	c.Client.APIURL = strings.TrimRight(strings.TrimSpace(c.Client.APIURL), "/")
	if c.Client.APIURL == "" {
		c.Client.APIURL = defaultAPIURL
	}
	var err error
	if strings.TrimSpace(c.Client.IdentityPath) == "" {
		c.Client.IdentityPath = filepath.Join(c.Paths.DataDir, defaultIdentityFile)
	}
	if c.Client.IdentityPath, err = expandPath(c.Client.IdentityPath); err != nil {
		return fmt.Errorf("client.identity_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
