package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr string

	StorageDriver string
	StorageDSN    string

	// RefreshInterval is how often the cron worker re-imports plan listings.
	// The settings table can override it at runtime.
	RefreshInterval time.Duration

	AdminUsername string
	AdminPassword string
}

// FromEnv builds a Config from WATTFINDER_* environment variables, with sane
// defaults.
func FromEnv() Config {
	return Config{
		ListenAddr:      getenv("WATTFINDER_LISTEN_ADDR", ":8080"),
		StorageDriver:   getenv("WATTFINDER_STORAGE_DRIVER", "memory"),
		StorageDSN:      getenv("WATTFINDER_STORAGE_DSN", ""),
		RefreshInterval: getenvDuration("WATTFINDER_REFRESH_INTERVAL", 24*time.Hour),
		AdminUsername:   getenv("WATTFINDER_ADMIN_USERNAME", "admin"),
		AdminPassword:   getenv("WATTFINDER_ADMIN_PASSWORD", ""),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getenvDuration accepts either a Go duration string ("30m") or a bare
// integer number of seconds.
func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return fallback
}
