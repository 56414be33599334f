package auth

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	GoogleClientID     string `mapstructure:"GoogleClientID"`
	GoogleClientSecret string `mapstructure:"GoogleClientSecret"`
	GoogleRedirectURL  string `mapstructure:"GoogleRedirectURL"`
	JWTSecret          string `mapstructure:"JWTSecret"`
}

func NewConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.BindEnv("GoogleClientID", "GOOGLE_CLIENT_ID")
	v.BindEnv("GoogleClientSecret", "GOOGLE_CLIENT_SECRET")
	v.BindEnv("GoogleRedirectURL", "GOOGLE_REDIRECT_URI")
	v.BindEnv("JWTSecret", "JWT_SECRET")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Warning: using only environment variables: %v\n", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot unmarshal config: %w", err)
	}

	if cfg.GoogleClientID == "" {
		cfg.GoogleClientID = v.GetString("GOOGLE_CLIENT_ID")
	}
	if cfg.GoogleClientSecret == "" {
		cfg.GoogleClientSecret = v.GetString("GOOGLE_CLIENT_SECRET")
	}
	if cfg.GoogleRedirectURL == "" {
		cfg.GoogleRedirectURL = v.GetString("GOOGLE_REDIRECT_URI")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = v.GetString("JWT_SECRET")
	}

	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, fmt.Errorf("google oauth configuration is incomplete")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWTSecret is required")
	}

	return &cfg, nil
}
