package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service-level configuration for the monitor
type Config struct {
	// Provider
	ProviderBaseURL string
	StationTableURL string
	APIEndpoints    []string

	// Station cache
	StationCachePath       string
	StationCacheMaxAgeDays int

	// HTTP transport
	HTTPTimeout   time.Duration
	HTTPRetries   int
	ProxyURL      string
	InsecureTLS   bool
	RequestJitter bool

	// Alerting
	AlertRepeats int
	AlertGap     time.Duration

	// Poll history (optional)
	HistoryDatabase  string
	HistoryRetention time.Duration
	StatusAddr       string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		// Provider
		ProviderBaseURL: strings.TrimRight(getEnv("PROVIDER_BASE_URL", "https://kyfw.12306.cn"), "/"),
		StationTableURL: getEnv("STATION_TABLE_URL", ""),
		APIEndpoints:    getEnvList("API_ENDPOINTS", []string{"leftTicket/query", "leftTicket/queryZ", "leftTicket/queryA"}),

		// Station cache
		StationCachePath:       getEnv("STATION_CACHE_PATH", "station_codes.json"),
		StationCacheMaxAgeDays: getEnvInt("STATION_CACHE_MAX_AGE_DAYS", 0),

		// HTTP transport
		HTTPTimeout:   time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		HTTPRetries:   getEnvInt("HTTP_RETRIES", 1),
		ProxyURL:      getEnv("HTTPS_PROXY_URL", ""),
		InsecureTLS:   getEnvBool("INSECURE_TLS", true),
		RequestJitter: getEnvBool("REQUEST_JITTER", true),

		// Alerting
		AlertRepeats: getEnvInt("ALERT_REPEATS", 5),
		AlertGap:     time.Duration(getEnvInt("ALERT_GAP_MS", 500)) * time.Millisecond,

		// Poll history
		HistoryDatabase:  getEnv("HISTORY_DATABASE", ""),
		HistoryRetention: time.Duration(getEnvInt("HISTORY_RETENTION_HOURS", 72)) * time.Hour,
		StatusAddr:       getEnv("STATUS_ADDR", ""),
	}

	// Derived URLs
	if cfg.StationTableURL == "" {
		cfg.StationTableURL = cfg.ProviderBaseURL + "/otn/resources/js/framework/station_name.js"
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blank items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	items := SplitList(value)
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// SplitList splits a comma-separated list (ASCII or full-width commas) and trims each item
func SplitList(s string) []string {
	s = strings.ReplaceAll(s, "，", ",")
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
