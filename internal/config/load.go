package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables use the
// DAYBOOK_ prefix with underscores for nesting (DAYBOOK_SERVER_PORT) and
// take precedence over file values. Returns a populated Config or an error
// if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults carry it.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("DAYBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to Unmarshal unless bound.
	bindEnvs := []struct {
		key    string
		envVar string
	}{
		{"database.url", "DAYBOOK_DATABASE_URL"},
		{"auth.jwt_secret", "DAYBOOK_AUTH_JWT_SECRET"},
		{"push.credentials_file", "DAYBOOK_PUSH_CREDENTIALS_FILE"},
		{"recommend.gemini_api_key", "DAYBOOK_RECOMMEND_GEMINI_API_KEY"},
	}
	for _, env := range bindEnvs {
		if err := v.BindEnv(env.key, env.envVar); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env.envVar, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sensible one.
// Database URL and JWT secret deliberately have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("calendar.calendar_id", "primary")

	v.SetDefault("notifier.interval_seconds", 60)
	v.SetDefault("notifier.lead_time_minutes", 15)
	v.SetDefault("notifier.window_slack_minutes", 1)
	v.SetDefault("notifier.cooldown_minutes", 15)

	v.SetDefault("recommend.model", "gemini-embedding-001")
}
