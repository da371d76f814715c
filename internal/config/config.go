package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Push      PushConfig      `mapstructure:"push"`
	Notifier  NotifierConfig  `mapstructure:"notifier"  validate:"required"`
	Recommend RecommendConfig `mapstructure:"recommend"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains token validation settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// CalendarConfig contains external calendar settings. The calendar ID is the
// target calendar for synced task events; "primary" addresses the user's
// default calendar.
type CalendarConfig struct {
	CalendarID string `mapstructure:"calendar_id"`
}

// PushConfig contains push transport settings. An empty credentials file
// disables the push adapter; the dispatcher then runs with a no-op sender.
type PushConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

// NotifierConfig contains the reminder dispatcher's timing knobs.
// Defaults: a 60 second poll, a reminder window centered 15 minutes ahead
// with one minute of slack either side, and a 15 minute cooldown per
// user-task pair.
type NotifierConfig struct {
	IntervalSeconds    int `mapstructure:"interval_seconds"     validate:"required,gt=0"`
	LeadTimeMinutes    int `mapstructure:"lead_time_minutes"    validate:"required,gt=0"`
	WindowSlackMinutes int `mapstructure:"window_slack_minutes" validate:"required,gt=0"`
	CooldownMinutes    int `mapstructure:"cooldown_minutes"     validate:"required,gt=0"`
}

// RecommendConfig contains settings for the related-task scorer. An empty
// API key disables the feature.
type RecommendConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	Model        string `mapstructure:"model"`
}
