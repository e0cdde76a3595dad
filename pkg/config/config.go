package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration values
type Config struct {
	Port               string        `mapstructure:"port"`
	GinMode            string        `mapstructure:"gin_mode"`
	RegistrationAPIURL string        `mapstructure:"registration_api_url"`
	HTTPTimeout        time.Duration `mapstructure:"http_timeout"`
	SessionTTL         time.Duration `mapstructure:"session_ttl"`
	SessionSweepEvery  time.Duration `mapstructure:"session_sweep_interval"`
	StrictSubmit       bool          `mapstructure:"strict_submit"`
	AllowedOrigins     []string      `mapstructure:"allowed_origins"`
}

var envKeys = map[string]string{
	"port":                   "PORT",
	"gin_mode":               "GIN_MODE",
	"registration_api_url":   "REGISTRATION_API_URL",
	"http_timeout":           "HTTP_TIMEOUT",
	"session_ttl":            "SESSION_TTL",
	"session_sweep_interval": "SESSION_SWEEP_INTERVAL",
	"strict_submit":          "STRICT_SUBMIT",
	"allowed_origins":        "ALLOWED_ORIGINS",
}

// LoadDotEnv loads variables from the given .env files, or ./.env when none
// are given. Variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// LoadConfig reads configuration from environment variables, falling back to
// defaults
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("registration_api_url", "https://codebuddy.review")
	v.SetDefault("http_timeout", 10*time.Second)
	v.SetDefault("session_ttl", 30*time.Minute)
	v.SetDefault("session_sweep_interval", time.Minute)
	v.SetDefault("strict_submit", false)
	v.SetDefault("allowed_origins", []string{"*"})

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.SessionSweepEvery <= 0 {
		return nil, fmt.Errorf("session sweep interval must be positive, got %s", cfg.SessionSweepEvery)
	}

	return &cfg, nil
}
