package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader reads typed values from the environment and remembers every
// variable that was set but could not be parsed, so the caller can log them
// once instead of silently running on defaults.
type envReader struct {
	invalid []string
}

func (r *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *envReader) reject(key, value string) {
	r.invalid = append(r.invalid, fmt.Sprintf("%s=%q", key, value))
}

func (r *envReader) String(key, def string) string {
	if v, ok := r.lookup(key); ok {
		return v
	}
	return def
}

func (r *envReader) Int(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.reject(key, v)
		return def
	}
	return n
}

func (r *envReader) Uint64(key string, def uint64) uint64 {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		r.reject(key, v)
		return def
	}
	return n
}

func (r *envReader) Bool(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.reject(key, v)
		return def
	}
	return b
}

// Duration accepts Go duration strings ("90s", "5m") and bare integers,
// which are taken as seconds.
func (r *envReader) Duration(key string, def time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	r.reject(key, v)
	return def
}

// Invalid lists the variables that were present but unparsable.
func (r *envReader) Invalid() []string {
	return r.invalid
}
