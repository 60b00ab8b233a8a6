// Package config loads client settings from defaults, an optional config
// file, a .env file and ADVOCAI_* environment variables.
package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable key.
const EnvPrefix = "ADVOCAI"

// Config holds all configuration values.
type Config struct {
	// Backend
	APIURL        string
	ClientTimeout time.Duration
	SlowRequest   time.Duration

	// Local state
	CredentialsFile string
	DownloadDir     string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Options controls where Load looks for its inputs.
type Options struct {
	// ConfigFile overrides the default config file location.
	ConfigFile string
	// EnvFile is loaded with godotenv before reading the environment.
	EnvFile string
}

// Load reads configuration with default options.
func Load() Config {
	cfg, err := LoadWith(Options{EnvFile: ".env"})
	if err != nil {
		slog.Warn("config file ignored", "error", err)
	}
	return cfg
}

// LoadWith reads configuration. A broken config file is reported but the
// returned Config still carries defaults and environment overrides.
func LoadWith(opts Options) (Config, error) {
	if opts.EnvFile != "" {
		// Existing environment wins over .env entries.
		_ = godotenv.Load(opts.EnvFile)
	}

	v := viper.New()
	v.SetDefault("api_url", "http://localhost:8000/api/")
	v.SetDefault("client_timeout", "60s")
	v.SetDefault("slow_request", "2s")
	v.SetDefault("credentials_file", filepath.Join(configDir(), "credentials.yaml"))
	v.SetDefault("download_dir", ".")
	v.SetDefault("log_file", filepath.Join(os.TempDir(), "advocai.log"))
	v.SetDefault("log_level", "INFO")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	var fileErr error
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(opts.ConfigFile != "" && os.IsNotExist(err)) {
			fileErr = err
		}
	}

	return Config{
		APIURL:          NormalizeBaseURL(v.GetString("api_url")),
		ClientTimeout:   parseDuration(v.GetString("client_timeout"), 60*time.Second),
		SlowRequest:     parseDuration(v.GetString("slow_request"), 2*time.Second),
		CredentialsFile: v.GetString("credentials_file"),
		DownloadDir:     v.GetString("download_dir"),
		LogFile:         v.GetString("log_file"),
		LogLevel:        parseLogLevel(v.GetString("log_level")),
	}, fileErr
}

// NormalizeBaseURL guarantees a trailing slash so relative endpoint paths
// resolve below the versioned base rather than replacing its last segment.
func NormalizeBaseURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "http://localhost:8000/api/"
	}
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s
}

func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "advocai")
	}
	return filepath.Join(os.TempDir(), "advocai")
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
