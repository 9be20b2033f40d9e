package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*AdminAPIConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultAdminAPIConfig
	v.SetDefault("admin_api.host", "0.0.0.0")
	v.SetDefault("admin_api.port", 8080)
	v.SetDefault("admin_api.request_timeout", "30s")
	v.SetDefault("admin_api.database_url", "sqlite://./data/fraudgate.db")
	v.SetDefault("admin_api.log_level", "info")
	v.SetDefault("admin_api.log_format", "text")
	v.SetDefault("admin_api.list_limit", 100)

	// Bind environment variables with FG_ prefix
	v.SetEnvPrefix("FG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &AdminAPIConfig{
		Host:           v.GetString("admin_api.host"),
		Port:           v.GetInt("admin_api.port"),
		RequestTimeout: v.GetDuration("admin_api.request_timeout"),
		DatabaseURL:    v.GetString("admin_api.database_url"),
		LogLevel:       v.GetString("admin_api.log_level"),
		LogFormat:      v.GetString("admin_api.log_format"),
		ListLimit:      v.GetInt("admin_api.list_limit"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive values for timeout and limits.
func validateConfig(cfg *AdminAPIConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database_url must not be empty")
	}
	if cfg.ListLimit <= 0 {
		return fmt.Errorf("list_limit must be positive, got %d", cfg.ListLimit)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", cfg.LogFormat)
	}
	return nil
}
