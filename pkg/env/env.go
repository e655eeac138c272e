package env

import (
	"os"
	"strings"
)

// Get returns the value of the named environment variable, falling back to
// the provided default when the variable is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
