package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const placeholderAPIKey = "your-api-key-here"

// envFiles are loaded, if present, before the environment is read. Values
// already in the environment win.
var envFiles = []string{".env.local", ".env"}

// Load loads the configuration from file and environment. The config file is
// optional unless configPath is given explicitly.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	v := viper.New()

	// Set default values
	setDefaults(v)
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".moviedeck"))
		}

		// Check /etc
		v.AddConfigPath("/etc/moviedeck/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFiles reads .env style files from the working directory
func loadEnvFiles() error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// bindEnv maps environment variables onto config keys
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("MOVIEDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The API key keeps the names the web app has always used
	_ = v.BindEnv("omdb.api_key", "OMDB_API_KEY", "NEXT_PUBLIC_OMDB_API_KEY", "MOVIEDECK_OMDB_API_KEY")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// OMDb defaults
	v.SetDefault("omdb.url", "http://www.omdbapi.com")
	v.SetDefault("omdb.api_key", "")
	v.SetDefault("omdb.timeout", "30s")
	v.SetDefault("omdb.requests_per_second", 0)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.upgrade_insecure", true)

	// Search defaults
	v.SetDefault("search.debounce", "500ms")
	v.SetDefault("search.freshness", "5m")
	v.SetDefault("search.cache_size", 256)
	v.SetDefault("search.retries", 1)

	// Storage defaults
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", "moviedeck:")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid. A missing API key is not an
// error; callers warn about it instead.
func validate(cfg *Config) error {
	if cfg.OMDb.URL == "" {
		return fmt.Errorf("omdb.url is required")
	}
	if cfg.OMDb.Timeout <= 0 {
		return fmt.Errorf("omdb.timeout must be positive")
	}
	if cfg.OMDb.RequestsPerSecond < 0 {
		return fmt.Errorf("omdb.requests_per_second cannot be negative")
	}

	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if cfg.Search.Debounce <= 0 {
		return fmt.Errorf("search.debounce must be positive")
	}
	if cfg.Search.Freshness <= 0 {
		return fmt.Errorf("search.freshness must be positive")
	}
	if cfg.Search.CacheSize <= 0 {
		return fmt.Errorf("search.cache_size must be positive")
	}
	if cfg.Search.Retries < 0 {
		return fmt.Errorf("search.retries cannot be negative")
	}

	validBackends := map[string]bool{
		"memory": true,
		"sqlite": true,
		"redis":  true,
	}
	if !validBackends[cfg.Storage.Backend] {
		return fmt.Errorf("invalid storage.backend: %s (must be 'memory', 'sqlite' or 'redis')", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == "sqlite" && cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for the sqlite backend")
	}
	if cfg.Storage.Backend == "redis" && cfg.Storage.Redis.Addr == "" {
		return fmt.Errorf("storage.redis.addr is required for the redis backend")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
