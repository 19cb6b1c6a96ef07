// Package config provides environment-driven configuration and defaults for
// the engine and its HTTP server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnv returns the value of key from the environment, or defaultValue if unset or empty.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return defaultValue
}

// GetEnvInt returns the integer for key, or defaultValue if unset/invalid.
func GetEnvInt(key string, defaultValue int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultValue
	}
	return n
}

// GetEnvFloat returns the float for key, or defaultValue if unset/invalid.
func GetEnvFloat(key string, defaultValue float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// GetEnvDuration returns the duration for key, or defaultValue if unset/invalid.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

// EngineConfig holds tuning for the stream-processing engine.
type EngineConfig struct {
	WindowMaxCount          int
	WindowMaxAge            time.Duration
	NormalRequestsPerMinute int
	NormalDailyTransferMB   float64
	SubscriberBufferSize    int
}

// ServerConfig holds configuration for the HTTP API server and its
// companion producers and sinks.
type ServerConfig struct {
	HTTPAddr           string
	ShutdownTimeout    time.Duration
	RecentEventCount   int
	RecentAnomalyCount int

	// SpoolDir enables the filedrop producer when non-empty.
	SpoolDir string

	// Alert sink forwarding; enabled when both endpoint and key are set.
	AlertSinkEnabled  bool
	AlertSinkEndpoint string
	AlertSinkAPIKey   string
	AlertSinkTimeout  time.Duration
}

// DefaultEngineConfig returns engine config from environment with defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		WindowMaxCount:          GetEnvInt("WINDOW_MAX_COUNT", 100),
		WindowMaxAge:            GetEnvDuration("WINDOW_MAX_AGE", time.Minute),
		NormalRequestsPerMinute: GetEnvInt("NORMAL_REQUESTS_PER_MINUTE", 50),
		NormalDailyTransferMB:   GetEnvFloat("NORMAL_DAILY_TRANSFER_MB", 20),
		SubscriberBufferSize:    GetEnvInt("SUBSCRIBER_BUFFER_SIZE", 256),
	}
}

// DefaultServerConfig returns server config from environment with defaults.
func DefaultServerConfig() ServerConfig {
	endpoint := GetEnv("ALERT_SINK_ENDPOINT", "")
	key := GetEnv("ALERT_SINK_API_KEY", "")
	return ServerConfig{
		HTTPAddr:           GetEnv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:    GetEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		RecentEventCount:   GetEnvInt("RECENT_EVENT_COUNT", 100),
		RecentAnomalyCount: GetEnvInt("RECENT_ANOMALY_COUNT", 50),
		SpoolDir:           GetEnv("EVENT_SPOOL_DIR", ""),
		AlertSinkEnabled:   endpoint != "" && key != "",
		AlertSinkEndpoint:  endpoint,
		AlertSinkAPIKey:    key,
		AlertSinkTimeout:   GetEnvDuration("ALERT_SINK_TIMEOUT", 30*time.Second),
	}
}
