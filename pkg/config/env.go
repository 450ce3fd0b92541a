// Package config holds the environment helpers shared by every binary.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSV splits a comma separated list, dropping blank entries.
func CSV(v string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// EnvIntDefault returns def when the variable is unset, malformed or not positive.
func EnvIntDefault(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// EnvDuration reads a positive integer count of unit, e.g. minutes.
func EnvDuration(key string, unit time.Duration, def int) time.Duration {
	return time.Duration(EnvIntDefault(key, def)) * unit
}

// Required names every listed variable that is unset or blank.
func Required(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(os.Getenv(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env %s", strings.Join(missing, ", "))
	}
	return nil
}
