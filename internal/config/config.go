package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Cal.com booking API
	CalAPIKey      string
	CalEventTypeID int
	CalBaseURL     string
	CalDryRun      bool

	// BookingTimezone is the IANA label sent upstream; BookingUTCOffset is
	// the fixed civil offset used to interpret spoken date/time strings.
	BookingTimezone  string
	BookingUTCOffset string

	// Dedup guard
	DedupTTL      time.Duration
	DedupBackend  string
	RedisAddr     string
	RedisPassword string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CalAPIKey:      getEnv("CAL_API_KEY", ""),
		CalEventTypeID: getEnvAsInt("CAL_EVENT_TYPE_ID", 0),
		CalBaseURL:     getEnv("CAL_BASE_URL", "https://api.cal.com/v1"),
		CalDryRun:      getEnvAsBool("CAL_DRY_RUN", false),

		BookingTimezone:  getEnv("BOOKING_TIMEZONE", "America/New_York"),
		BookingUTCOffset: getEnv("BOOKING_UTC_OFFSET", "-05:00"),

		DedupTTL:      getEnvAsDuration("DEDUP_TTL", 120*time.Second),
		DedupBackend:  strings.ToLower(strings.TrimSpace(getEnv("DEDUP_BACKEND", "memory"))),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return nil
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
