package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers understood by document.Open.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the process configuration, read from .env and the environment.
type Config struct {
	Port              string
	LogLevel          string
	LogPretty         bool
	StoreDriver       string
	DatabaseURL       string
	SQLitePath        string
	StoreTimeout      time.Duration
	CommitRetries     int
	SessionCacheSize  int
	TerminalCacheSize int
	RabbitURL         string
	EventsExchange    string
	CORSOrigins       []string
}

// Load reads envFile (".env" when empty) if it exists and then the environment.
// A missing env file is not an error.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
	}

	cfg := Config{
		Port:              getEnv("APP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getBool("LOG_PRETTY", false),
		StoreDriver:       strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		SQLitePath:        getEnv("SQLITE_PATH", "./data/qrpay.db"),
		StoreTimeout:      getDuration("STORE_TIMEOUT", 5*time.Second),
		CommitRetries:     getInt("COMMIT_RETRIES", 3),
		SessionCacheSize:  getInt("SESSION_CACHE_SIZE", 1024),
		TerminalCacheSize: getInt("TERMINAL_CACHE_SIZE", 64),
		RabbitURL:         os.Getenv("RABBITMQ_URL"),
		EventsExchange:    getEnv("EVENTS_EXCHANGE", "qrpay.events"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER: %s (allowed: memory, postgres, sqlite)", c.StoreDriver)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be greater than zero")
	}
	if c.CommitRetries < 0 {
		return fmt.Errorf("COMMIT_RETRIES cannot be negative")
	}
	if c.SessionCacheSize <= 0 || c.TerminalCacheSize <= 0 {
		return fmt.Errorf("SESSION_CACHE_SIZE and TERMINAL_CACHE_SIZE must be greater than zero")
	}
	return nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}

func getBool(k string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return b
}

func getDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
