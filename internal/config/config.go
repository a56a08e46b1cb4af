package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ActiveTimerBackendSQLite   = "sqlite"
	ActiveTimerBackendDynamoDB = "dynamodb"
)

type Config struct {
	Port               string
	DBPath             string
	JWTSecret          string
	TokenTTL           time.Duration
	CORSOrigins        []string
	// MigrationsDir overrides the schema files embedded in the binary.
	MigrationsDir      string
	ActiveTimerBackend string
	ActiveTimerTable   string
	ActiveTimerStale   time.Duration
	StreamKeepalive    time.Duration
}

func Load() Config {
	return Config{
		Port:               getEnv("PORT", "8080"),
		DBPath:             getEnv("DB_PATH", "./data/focusroom.db"),
		JWTSecret:          getEnv("JWT_SECRET", "change-this-secret"),
		TokenTTL:           time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		CORSOrigins:        getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		MigrationsDir:      getEnv("MIGRATIONS_DIR", ""),
		ActiveTimerBackend: strings.ToLower(getEnv("ACTIVE_TIMER_BACKEND", ActiveTimerBackendSQLite)),
		ActiveTimerTable:   getEnv("ACTIVE_TIMER_TABLE", "focusroom-active-timers"),
		ActiveTimerStale:   getEnvDuration("ACTIVE_TIMER_STALE_AFTER", 10*time.Minute),
		StreamKeepalive:    getEnvDuration("STREAM_KEEPALIVE", 25*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
