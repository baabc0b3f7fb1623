// internal/config/config.go
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	DBURL       string `mapstructure:"DB_URL"`
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`
	GithubToken string `mapstructure:"GITHUB_TOKEN"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("GITHUB_TOKEN", "")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields. GITHUB_TOKEN is optional: it is only the
	// server-side fallback credential for requests without a caller token.
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}

	return &cfg, nil
}
