package gcp

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// GetEnvFloat32 reads a float environment variable. A set but malformed
// value is an error rather than a silent fallback.
func GetEnvFloat32(key string, fallback float32) (float32, error) {
	value := GetEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, value, err)
	}
	return float32(f), nil
}

// GetEnvInt64 reads an integer environment variable.
func GetEnvInt64(key string, fallback int64) (int64, error) {
	value := GetEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return n, nil
}

// GetEnvDuration reads a duration such as "90s" or "2m".
func GetEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := GetEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return d, nil
}

// GetEnvBool reads a boolean environment variable.
func GetEnvBool(key string, fallback bool) (bool, error) {
	value := GetEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, value, err)
	}
	return b, nil
}
