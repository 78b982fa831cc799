package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	StoreBackend                     string `mapstructure:"STORE_BACKEND"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	FirebaseWebAPIKey                string `mapstructure:"FIREBASE_WEB_API_KEY"` // Identity Toolkit REST key
	ClientURL                        string `mapstructure:"CLIENT_URL"`
	SessionSecret                    string `mapstructure:"SESSION_SECRET"`
	CSRFKey                          string `mapstructure:"CSRF_KEY"` // 32 bytes; empty disables CSRF checks

	GoogleOAuthClientID     string `mapstructure:"GOOGLE_OAUTH_CLIENT_ID"`
	GoogleOAuthClientSecret string `mapstructure:"GOOGLE_OAUTH_CLIENT_SECRET"`
	GoogleOAuthRedirectURL  string `mapstructure:"GOOGLE_OAUTH_REDIRECT_URL"`

	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	ScheduleCacheTTL time.Duration `mapstructure:"SCHEDULE_CACHE_TTL"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	NotifyQueue string `mapstructure:"NOTIFY_QUEUE"`

	SMTPHost   string `mapstructure:"SMTP_HOST"`
	SMTPPort   int    `mapstructure:"SMTP_PORT"`
	SMTPUser   string `mapstructure:"SMTP_USER"`
	SMTPPass   string `mapstructure:"SMTP_PASS"`
	MailFrom   string `mapstructure:"MAIL_FROM"`
	StaffEmail string `mapstructure:"STAFF_EMAIL"`

	AnnouncementsLimit int           `mapstructure:"ANNOUNCEMENTS_LIMIT"`
	StaffPrayersLimit  int           `mapstructure:"STAFF_PRAYERS_LIMIT"`
	FeedbackLimit      int           `mapstructure:"FEEDBACK_LIMIT"`
	ClientIdleTTL      time.Duration `mapstructure:"CLIENT_IDLE_TTL"`
}

var envKeys = []string{
	"PORT", "GIN_MODE", "STORE_BACKEND",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"FIREBASE_WEB_API_KEY", "CLIENT_URL", "SESSION_SECRET", "CSRF_KEY",
	"GOOGLE_OAUTH_CLIENT_ID", "GOOGLE_OAUTH_CLIENT_SECRET", "GOOGLE_OAUTH_REDIRECT_URL",
	"REDIS_ADDR", "REDIS_PASSWORD", "SCHEDULE_CACHE_TTL",
	"RABBITMQ_URL", "NOTIFY_QUEUE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "MAIL_FROM", "STAFF_EMAIL",
	"ANNOUNCEMENTS_LIMIT", "STAFF_PRAYERS_LIMIT", "FEEDBACK_LIMIT", "CLIENT_IDLE_TTL",
}

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadSeedConfig loads the same keys but only requires what the seed
// command uses: the Firebase project.
func LoadSeedConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	return cfg, nil
}

func load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("STORE_BACKEND", StoreFirestore)
	v.SetDefault("SCHEDULE_CACHE_TTL", 5*time.Minute)
	v.SetDefault("NOTIFY_QUEUE", "campmeeting.staff")
	v.SetDefault("SMTP_PORT", 2525)
	v.SetDefault("ANNOUNCEMENTS_LIMIT", 25)
	v.SetDefault("STAFF_PRAYERS_LIMIT", 50)
	v.SetDefault("FEEDBACK_LIMIT", 100)
	v.SetDefault("CLIENT_IDLE_TTL", 30*time.Minute)

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.New("failed to bind env " + key + ": " + err.Error())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}
	return &cfg, nil
}

// Validate checks required fields for the selected store backend.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required")
		}
		if c.FirebaseWebAPIKey == "" {
			return errors.New("FIREBASE_WEB_API_KEY is required")
		}
	default:
		return errors.New("STORE_BACKEND must be 'firestore' or 'memory'")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.CSRFKey != "" && len(c.CSRFKey) != 32 {
		return errors.New("CSRF_KEY must be 32 bytes")
	}
	if c.AnnouncementsLimit <= 0 || c.StaffPrayersLimit <= 0 || c.FeedbackLimit <= 0 {
		return errors.New("subscription limits must be positive")
	}
	return nil
}

// GoogleOAuthEnabled reports whether the federated redirect flow is configured.
func (c *Config) GoogleOAuthEnabled() bool {
	return c.GoogleOAuthClientID != "" && c.GoogleOAuthClientSecret != ""
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}
