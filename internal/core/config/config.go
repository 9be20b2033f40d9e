// Package config provides configuration management for the fraudgate admin API.
package config

import "time"

// AdminAPIConfig holds configuration for the HTTP admin API service.
type AdminAPIConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	DatabaseURL    string
	LogLevel       string
	LogFormat      string
	ListLimit      int
}

// DefaultAdminAPIConfig returns configuration with default values.
func DefaultAdminAPIConfig() *AdminAPIConfig {
	return &AdminAPIConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		RequestTimeout: 30 * time.Second,
		DatabaseURL:    "sqlite://./data/fraudgate.db",
		LogLevel:       "info",
		LogFormat:      "text",
		ListLimit:      100,
	}
}
