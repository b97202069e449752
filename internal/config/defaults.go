package config

const (
	defaultConfigPath             = "~/.config/radiocalico/config.toml"
	defaultDataDir                = "~/.local/share/radiocalico"
	defaultDatabaseFile           = "radiocalico.db"
	defaultIdentityFile           = "identity"
	defaultLogDir                 = "~/.local/share/radiocalico/logs"
	defaultBind                   = "127.0.0.1:5000"
	defaultRateLimitRequests      = 120
	defaultRateLimitWindowSeconds = 60
	defaultMetadataURL            = "https://d3d4yli4hf5bmh.cloudfront.net/metadatav2.json"
	defaultAlbumArtURL            = "https://d3d4yli4hf5bmh.cloudfront.net/cover.jpg"
	defaultMetadataPollSeconds    = 5
	defaultFallbackDelaySeconds   = 2
	defaultAPIURL                 = "http://127.0.0.1:5000"
	defaultRequestTimeoutSeconds  = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// defaultStreamVariants is ordered by playback compatibility: AAC first, FLAC last.
func defaultStreamVariants() []StreamVariant {
	return []StreamVariant{
		{Name: "AAC Hi-Fi", URL: "https://d3d4yli4hf5bmh.cloudfront.net/hls/aac_hifi.m3u8"},
		{Name: "Master Playlist", URL: "https://d3d4yli4hf5bmh.cloudfront.net/hls/live.m3u8"},
		{Name: "FLAC Lossless", URL: "https://d3d4yli4hf5bmh.cloudfront.net/hls/flac_hires.m3u8"},
	}
}

// Default returns a Config populated with repository defaults. Database and
// identity paths are derived from the data directory during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind:                   defaultBind,
			CORSOrigins:            []string{"*"},
			RateLimitRequests:      defaultRateLimitRequests,
			RateLimitWindowSeconds: defaultRateLimitWindowSeconds,
			MetricsEnabled:         true,
		},
		Stream: Stream{
			MetadataURL:          defaultMetadataURL,
			AlbumArtURL:          defaultAlbumArtURL,
			Variants:             defaultStreamVariants(),
			MetadataPollSeconds:  defaultMetadataPollSeconds,
			FallbackDelaySeconds: defaultFallbackDelaySeconds,
		},
		Client: Client{
			APIURL:                defaultAPIURL,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
