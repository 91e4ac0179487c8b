package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Registry
	GLEIFBaseURL   string
	GLEIFTimeout   time.Duration
	GLEIFRateLimit int // requests per second, 0 disables the limiter
	UserAgent      string

	// Matching
	MatchBatchCap    int
	MatchDelay       time.Duration
	ChildrenPageSize int
	PrefetchLimit    int
	FuzzyFallback    bool

	// Downloads
	DataDir         string
	DownloadTimeout time.Duration

	// Surfaces
	ListenAddr   string
	MCPTransport string
	MCPAddr      string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	// Загружаем .env файл если существует
	_ = godotenv.Load()

	cfg := &Config{
		GLEIFBaseURL:   getEnv("GLEIF_BASE_URL", "https://api.gleif.org/api/v1"),
		GLEIFTimeout:   getEnvAsDuration("GLEIF_TIMEOUT", 30*time.Second),
		GLEIFRateLimit: getEnvAsInt("GLEIF_RATE_LIMIT", 4),
		UserAgent:      getEnv("GLEIF_USER_AGENT", "fuzzy-supplier-finder/0.1"),

		MatchBatchCap:    getEnvAsInt("MATCH_BATCH_CAP", 40),
		MatchDelay:       getEnvAsDuration("MATCH_DELAY", 250*time.Millisecond),
		ChildrenPageSize: getEnvAsInt("CHILDREN_PAGE_SIZE", 10),
		PrefetchLimit:    getEnvAsInt("PREFETCH_LIMIT", 10),
		FuzzyFallback:    getEnvAsBool("FUZZY_FALLBACK", false),

		DataDir:         getEnv("DATA_DIR", "./data"),
		DownloadTimeout: getEnvAsDuration("DOWNLOAD_TIMEOUT", 5*time.Minute),

		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		MCPTransport: getEnv("MCP_TRANSPORT", "stdio"),
		MCPAddr:      getEnv("MCP_ADDR", ":8081"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration Load would produce with an empty environment.
func Default() *Config {
	return &Config{
		GLEIFBaseURL:     "https://api.gleif.org/api/v1",
		GLEIFTimeout:     30 * time.Second,
		GLEIFRateLimit:   4,
		UserAgent:        "fuzzy-supplier-finder/0.1",
		MatchBatchCap:    40,
		MatchDelay:       250 * time.Millisecond,
		ChildrenPageSize: 10,
		PrefetchLimit:    10,
		DataDir:          "./data",
		DownloadTimeout:  5 * time.Minute,
		ListenAddr:       ":8080",
		MCPTransport:     "stdio",
		MCPAddr:          ":8081",
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.GLEIFBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid GLEIF_BASE_URL %q", c.GLEIFBaseURL)
	}
	if c.GLEIFRateLimit < 0 {
		return fmt.Errorf("GLEIF_RATE_LIMIT must not be negative, got %d", c.GLEIFRateLimit)
	}
	if c.MatchBatchCap < 1 {
		return fmt.Errorf("MATCH_BATCH_CAP must be positive, got %d", c.MatchBatchCap)
	}
	if c.ChildrenPageSize < 1 {
		return fmt.Errorf("CHILDREN_PAGE_SIZE must be positive, got %d", c.ChildrenPageSize)
	}
	if c.MatchDelay < 0 {
		return fmt.Errorf("MATCH_DELAY must not be negative, got %s", c.MatchDelay)
	}
	switch c.MCPTransport {
	case "stdio", "http":
	default:
		return fmt.Errorf("MCP_TRANSPORT must be stdio or http, got %q", c.MCPTransport)
	}
	return nil
}

// NewLogger builds the slog logger described by LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Вспомогательные функции для получения переменных окружения
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
