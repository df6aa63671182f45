package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// API describes HTTP-layer configuration.
type API struct {
	BindAddr string

	DefaultLanguage string
	DefaultCountry  string
	DefaultPeriod   string
	MaxArticles     int

	CacheTTL      time.Duration
	CacheCapacity int

	SearchTimeout  time.Duration
	ExtractTimeout time.Duration

	GlobalRateLimit int // requests per hour per client IP
	NewsRateLimit   int // requests per minute per client IP on /news

	CORSOrigins []string
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		BindAddr:        getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultLanguage: getEnv("NEWS_DEFAULT_LANGUAGE", "en"),
		DefaultCountry:  getEnv("NEWS_DEFAULT_COUNTRY", "IN"),
		DefaultPeriod:   getEnv("NEWS_DEFAULT_PERIOD", "1d"),
		MaxArticles:     getInt("NEWS_MAX_ARTICLES", 30),
		CacheTTL:        getDuration("CACHE_TTL", "5m"),
		CacheCapacity:   getInt("CACHE_CAPACITY", 256),
		SearchTimeout:   getDuration("SEARCH_TIMEOUT", "10s"),
		ExtractTimeout:  getDuration("EXTRACT_TIMEOUT", "20s"),
		GlobalRateLimit: getInt("RATE_LIMIT_GLOBAL", 100),
		NewsRateLimit:   getInt("RATE_LIMIT_NEWS", 5),
		CORSOrigins:     splitAndTrim(getEnv("CORS_ORIGINS", "http://localhost:3000,https://*.vercel.app")),
	}

	if c.MaxArticles <= 0 {
		return nil, fmt.Errorf("NEWS_MAX_ARTICLES must be positive")
	}
	if c.CacheTTL <= 0 {
		return nil, fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.CacheCapacity <= 0 {
		return nil, fmt.Errorf("CACHE_CAPACITY must be positive")
	}
	if c.SearchTimeout <= 0 {
		return nil, fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}
	if c.ExtractTimeout <= 0 {
		return nil, fmt.Errorf("EXTRACT_TIMEOUT must be positive")
	}
	if c.GlobalRateLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_GLOBAL must be positive")
	}
	if c.NewsRateLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_NEWS must be positive")
	}
	if len(c.CORSOrigins) == 0 {
		return nil, fmt.Errorf("CORS_ORIGINS must contain at least one origin")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
