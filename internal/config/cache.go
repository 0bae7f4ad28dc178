package config

import (
    "fmt"
    "strings"
    "time"

    "github.com/caarlos0/env/v11"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching will be disabled.
// Methods lists the HTTP methods to cache (e.g. GET, HEAD).  TTL defines the
// lifetime of cache entries.  KeyStrategy determines which parts of the request
// contribute to the cache key.
type CacheConfig struct {
    Enabled      bool          `env:"CACHE_ENABLED" envDefault:"true"`
    MethodList   []string      `env:"CACHE_METHODS" envDefault:"GET" envSeparator:","`
    TTL          time.Duration `env:"CACHE_TTL" envDefault:"30s"`
    KeyStrategy  string        `env:"CACHE_KEY_STRATEGY" envDefault:"route_query"`
    Prefix       string        `env:"CACHE_PREFIX" envDefault:"cache"`
    MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`

    Methods map[string]bool
}

// LoadCacheConfig parses the CACHE_* variables.  Methods are upper-cased.
func LoadCacheConfig() (CacheConfig, error) {
    var c CacheConfig
    if err := env.Parse(&c); err != nil {
        return CacheConfig{}, fmt.Errorf("parse cache env: %w", err)
    }
    c.Methods = ParseMethods(c.MethodList)
    return c, nil
}

// ParseMethods builds the method set used by the cache middleware.
func ParseMethods(list []string) map[string]bool {
    m := map[string]bool{}
    for _, p := range list {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}
