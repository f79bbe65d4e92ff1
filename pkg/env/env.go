// Package env reads the few process settings that are resolved before
// config.Load runs.
package env

import (
	"os"
	"strings"
)

// First returns the first non-blank value among keys, or fallback.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return fallback
}

// Is reports whether key is set to want, ignoring case.
func Is(key, want string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), want)
}
