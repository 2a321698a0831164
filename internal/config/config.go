package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port    string `env:"PORT" envDefault:"3000"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`

	// Database configuration
	DBType               string `env:"DB_TYPE" envDefault:"sqlite"` // mysql, postgres, sqlite, sqlite-pure, sqlserver
	DBHost               string `env:"DB_HOST" envDefault:"localhost"`
	DBPort               string `env:"DB_PORT" envDefault:"3306"`
	DBDatabase           string `env:"DB_DATABASE"`
	DBAppUser            string `env:"DB_APP_USER"`
	DBAppPassword        string `env:"DB_APP_PASSWORD"`
	DBAppConnectionLimit int    `env:"DB_APP_CONNECTION_LIMIT" envDefault:"5"`
	DBAutoMigrate        bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	// Authorizer configuration
	AuthzURL      string `env:"AUTHZ_URL"`
	AuthzClientID string `env:"AUTHZ_CLIENT_ID"`

	// Access control
	SuperAdmins []string `env:"SUPER_ADMINS" envSeparator:","`
	AdminBCC    []string `env:"ADMIN_BCC" envSeparator:","`
	StateKey    string   `env:"STATE_KEY" envDefault:"KA"`

	// Outbound email
	FromAddress  string        `env:"FROM_ADDRESS" envDefault:"noreply@localhost"`
	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
	DebugMail    bool          `env:"DEBUG_MAIL" envDefault:"false"`
	MailRate     float64       `env:"MAIL_RATE" envDefault:"5"`

	// Outbound SMS
	SMSGatewayURL string  `env:"SMS_GATEWAY_URL"`
	SMSAPIKey     string  `env:"SMS_API_KEY"`
	SMSSender     string  `env:"SMS_SENDER" envDefault:"VOTNET"`
	SMSRate       float64 `env:"SMS_RATE" envDefault:"2"`
	SMSBatchSize  int     `env:"SMS_BATCH_SIZE" envDefault:"50"`

	// Electoral roll lookup
	ElectoralRollURL      string        `env:"ELECTORAL_ROLL_URL" envDefault:"http://ceokarnataka.kar.nic.in/SearchWithEpicNo_New.aspx"`
	ElectoralRollDistrict string        `env:"ELECTORAL_ROLL_DISTRICT" envDefault:"21"`
	LookupTimeout         time.Duration `env:"LOOKUP_TIMEOUT" envDefault:"10s"`

	// Search, dates and logging
	SearchIndexPath string `env:"SEARCH_INDEX_PATH"`
	Timezone        string `env:"TIMEZONE" envDefault:"Asia/Kolkata"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables, after applying any .env
// files given. Variables already set in the environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.SuperAdmins = normalizeEmails(cfg.SuperAdmins)
	cfg.AdminBCC = normalizeEmails(cfg.AdminBCC)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	switch c.DBType {
	case "sqlite", "sqlite-pure":
	default:
		if c.DBAppUser == "" {
			return fmt.Errorf("DB_APP_USER is required")
		}
	}
	if c.AuthzURL != "" && c.AuthzClientID == "" {
		return fmt.Errorf("AUTHZ_CLIENT_ID is required when AUTHZ_URL is set")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.DBAppConnectionLimit < 1 {
		return fmt.Errorf("DB_APP_CONNECTION_LIMIT must be positive")
	}
	return nil
}

// Location is the time zone used for coverage dates.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func normalizeEmails(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
