package api

import (
	"log"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config holds the HTTP service settings.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	Workers        int
	AcquireTimeout time.Duration
	LogLevel       string
}

// Debug reports whether per-request timing logs are enabled.
func (c Config) Debug() bool {
	return c.LogLevel == "debug"
}

// LoadConfig reads the configuration from GASKET_* environment variables, using
// defaults for anything unset or malformed.
func LoadConfig() Config {
	return Config{
		Addr:           getEnv("GASKET_API_ADDR", ":8080"),
		MaxUploadBytes: getEnvInt64("GASKET_MAX_UPLOAD_BYTES", 10<<20),
		Workers:        int(getEnvInt64("GASKET_WORKERS", int64(runtime.NumCPU()))),
		AcquireTimeout: getEnvDuration("GASKET_ACQUIRE_TIMEOUT", 5*time.Second),
		LogLevel:       getEnv("GASKET_LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		log.Printf("Ignoring %s=%q: want a positive integer", key, raw)
		return defaultVal
	}
	return v
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Ignoring %s=%q: want a positive duration such as 5s", key, raw)
		return defaultVal
	}
	return d
}
