package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	// Server settings
	ServerPort      string        `json:"server_port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	Debug           bool          `json:"debug"`

	// Application paths
	LogDir  string `json:"log_dir"`
	TempDir string `json:"temp_dir"`

	// Subtitle defaults
	DefaultFormat string `json:"default_format"`

	// Rate limiting (inbound)
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Cookie hydration
	Cookies CookiesConfig `json:"cookies"`

	// Structured transcript backend
	Transcript TranscriptConfig `json:"transcript"`

	// Generic extraction backend
	Extractor ExtractorConfig `json:"extractor"`

	// Object storage publishing
	Storage StorageConfig `json:"storage"`

	// Artifact cache
	Database DatabaseConfig `json:"database"`

	Version string `json:"version"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
}

type CookiesConfig struct {
	// Path is the process-wide hydrated cookie file location.
	Path string `json:"path"`
	// Text is the secret-injected cookie material written to Path at startup.
	Text string `json:"-"`
}

type TranscriptConfig struct {
	// BaseURL is the platform endpoint root.
	BaseURL string `json:"base_url"`
	// CatalogEnabled selects the bulk track-listing strategy; when false the
	// backend probes a fixed list of common language tags instead.
	CatalogEnabled bool          `json:"catalog_enabled"`
	Timeout        time.Duration `json:"timeout"`
}

type ExtractorConfig struct {
	// BinPath is the yt-dlp executable.
	BinPath string `json:"bin_path"`
	// SocketTimeout bounds each network call inside one extraction attempt.
	SocketTimeout time.Duration `json:"socket_timeout"`
	// Retries is passed through to the extraction tool.
	Retries int `json:"retries"`
	// ThrottledRate is the transfer-rate ceiling in bytes per second.
	ThrottledRate int `json:"throttled_rate"`
	// AttemptsPerMinute paces extraction attempts process-wide.
	AttemptsPerMinute int `json:"attempts_per_minute"`
}

type StorageConfig struct {
	Bucket          string `json:"bucket"`
	Endpoint        string `json:"endpoint"`
	Region          string `json:"region"`
	AccessKey       string `json:"-"`
	SecretKey       string `json:"-"`
	KeyPrefix       string `json:"key_prefix"`
	EnableSignedURL bool   `json:"enable_signed_url"`
}

type DatabaseConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Debug:           getEnvAsBool("DEBUG", false),

		LogDir:  getEnv("LOG_DIR", "/var/log/yt-subs"),
		TempDir: getEnv("TEMP_DIR", "/tmp/yt-subs"),

		DefaultFormat: strings.ToLower(getEnv("DEFAULT_FORMAT", "vtt")),

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
		},

		Cookies: CookiesConfig{
			Path: getEnv("YT_COOKIES_PATH", "/tmp/cookies.txt"),
			Text: os.Getenv("YT_COOKIES_TEXT"),
		},

		Transcript: TranscriptConfig{
			BaseURL:        getEnv("TRANSCRIPT_BASE_URL", "https://www.youtube.com"),
			CatalogEnabled: getEnvAsBool("TRANSCRIPT_CATALOG_ENABLED", true),
			Timeout:        getEnvAsDuration("TRANSCRIPT_TIMEOUT", 30*time.Second),
		},

		Extractor: ExtractorConfig{
			BinPath:           getEnv("YTDLP_PATH", "yt-dlp"),
			SocketTimeout:     getEnvAsDuration("YTDLP_SOCKET_TIMEOUT", 30*time.Second),
			Retries:           getEnvAsInt("YTDLP_RETRIES", 10),
			ThrottledRate:     getEnvAsInt("YTDLP_THROTTLED_RATE", 256*1024),
			AttemptsPerMinute: getEnvAsInt("YTDLP_ATTEMPTS_PER_MINUTE", 30),
		},

		Storage: StorageConfig{
			Bucket:          getEnv("VIDEO_BUCKET", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKey:       os.Getenv("S3_ACCESS_KEY"),
			SecretKey:       os.Getenv("S3_SECRET_KEY"),
			KeyPrefix:       getEnv("S3_KEY_PREFIX", "subs"),
			EnableSignedURL: getEnvAsBool("ENABLE_SIGNED_URL", false),
		},

		Database: DatabaseConfig{
			Enabled: getEnvAsBool("CACHE_ENABLED", true),
			Path:    getEnv("DB_PATH", "/var/lib/yt-subs/data.db"),
		},

		Version: getEnv("VERSION", "1.0.0"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}
	if err := validateTimeouts(c); err != nil {
		return err
	}
	if c.DefaultFormat != "srt" && c.DefaultFormat != "vtt" {
		return errors.Errorf("default format must be srt or vtt, got %q", c.DefaultFormat)
	}
	return nil
}

func validatePaths(c *Config) error {
	type target struct {
		path string
		name string
	}
	paths := []target{
		{c.LogDir, "log directory"},
		{c.TempDir, "temp directory"},
	}
	if c.Database.Enabled {
		paths = append(paths, target{filepath.Dir(c.Database.Path), "database directory"})
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", p.name)
		}
	}

	return nil
}

func validateTimeouts(c *Config) error {
	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be positive")
	}
	if c.Extractor.SocketTimeout <= 0 {
		return errors.New("extractor socket timeout must be positive")
	}
	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
