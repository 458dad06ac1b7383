package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Storage
	DataDir        string
	SettingsFile   string
	StorageBackend string
	DatabaseURL    string
	LenientReads   bool

	// Redis (optional change-event fan-out)
	RedisURL string

	// Frontend
	FrontendDir string
	CORSOrigin  string

	// Inference relay
	ChatRateLimit    int
	InferenceTimeout time.Duration

	LogLevel string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Port:             getEnvOrDefault("PORT", "5000"),
		Env:              getEnvOrDefault("ENV", "development"),
		DataDir:          getEnvOrDefault("DATA_DIR", "data"),
		SettingsFile:     getEnvOrDefault("SETTINGS_FILE", "config.json"),
		StorageBackend:   strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", BackendFile)),
		DatabaseURL:      getEnvOrDefault("DATABASE_URL", ""),
		LenientReads:     getEnvAsBoolOrDefault("LENIENT_READS", false),
		RedisURL:         getEnvOrDefault("REDIS_URL", ""),
		FrontendDir:      getEnvOrDefault("FRONTEND_DIR", "frontend"),
		CORSOrigin:       getEnvOrDefault("CORS_ORIGIN", "*"),
		ChatRateLimit:    getEnvAsIntOrDefault("CHAT_RATE_LIMIT", 0),
		InferenceTimeout: getEnvAsDurationOrDefault("INFERENCE_TIMEOUT", 0),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// Validate checks the combinations Load cannot reject on its own and fills
// the sqlite DSN when none was given.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendFile:
	case BackendSQLite:
		if c.DatabaseURL == "" {
			c.DatabaseURL = filepath.Join(c.DataDir, "promptdesk.db")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s storage backend", BackendPostgres)
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.ChatRateLimit < 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT must be >= 0, got %d", c.ChatRateLimit)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
