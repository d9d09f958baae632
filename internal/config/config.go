package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix              = "WEDDING"
	defaultHTTPAddress     = "0.0.0.0:8080"
	defaultEnvironment     = "production"
	defaultDatabaseDriver  = "mysql"
	defaultDatabaseHost    = "mysql"
	defaultDatabasePort    = 3306
	defaultDatabaseUser    = "root"
	defaultDatabaseName    = "wedding_rsvp"
	defaultDatabasePath    = "wedding.db"
	defaultSMTPPort        = 587
	defaultLogLevel        = "info"
	environmentDevelopment = "development"

	// DriverMySQL selects the deployed MySQL backend.
	DriverMySQL = "mysql"
	// DriverSQLite selects the embedded SQLite backend used for local runs.
	DriverSQLite = "sqlite"
)

// AppConfig captures runtime configuration for the RSVP API server.
type AppConfig struct {
	HTTPAddress string
	Environment string

	DatabaseDriver   string
	DatabaseHost     string
	DatabasePort     int
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string
	DatabasePath     string

	AdminToken string

	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	MailFrom       string
	MailRecipients []string

	LogLevel string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("environment", defaultEnvironment)
	configViper.SetDefault("database.driver", defaultDatabaseDriver)
	configViper.SetDefault("database.host", defaultDatabaseHost)
	configViper.SetDefault("database.port", defaultDatabasePort)
	configViper.SetDefault("database.user", defaultDatabaseUser)
	configViper.SetDefault("database.name", defaultDatabaseName)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("smtp.port", defaultSMTPPort)
	configViper.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:      configViper.GetString("http.address"),
		Environment:      strings.ToLower(strings.TrimSpace(configViper.GetString("environment"))),
		DatabaseDriver:   strings.ToLower(strings.TrimSpace(configViper.GetString("database.driver"))),
		DatabaseHost:     configViper.GetString("database.host"),
		DatabasePort:     configViper.GetInt("database.port"),
		DatabaseUser:     configViper.GetString("database.user"),
		DatabasePassword: configViper.GetString("database.password"),
		DatabaseName:     configViper.GetString("database.name"),
		DatabasePath:     configViper.GetString("database.path"),
		AdminToken:       configViper.GetString("admin.token"),
		SMTPHost:         configViper.GetString("smtp.host"),
		SMTPPort:         configViper.GetInt("smtp.port"),
		SMTPUsername:     configViper.GetString("smtp.username"),
		SMTPPassword:     configViper.GetString("smtp.password"),
		MailFrom:         configViper.GetString("mail.from"),
		MailRecipients:   splitRecipients(configViper.GetString("mail.recipients")),
		LogLevel:         configViper.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

// IsProduction reports whether the server should redact internal error detail.
func (c AppConfig) IsProduction() bool {
	return c.Environment != environmentDevelopment
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.AdminToken) == "" {
		return fmt.Errorf("admin.token is required")
	}

	switch c.DatabaseDriver {
	case DriverMySQL:
		if strings.TrimSpace(c.DatabaseHost) == "" {
			return fmt.Errorf("database.host is required for the mysql driver")
		}
		if strings.TrimSpace(c.DatabaseUser) == "" {
			return fmt.Errorf("database.user is required for the mysql driver")
		}
		if strings.TrimSpace(c.DatabaseName) == "" {
			return fmt.Errorf("database.name is required for the mysql driver")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q", DriverMySQL, DriverSQLite)
	}

	if len(c.MailRecipients) > 0 {
		if strings.TrimSpace(c.SMTPHost) == "" {
			return fmt.Errorf("smtp.host is required when mail.recipients is set")
		}
		if strings.TrimSpace(c.MailFrom) == "" {
			return fmt.Errorf("mail.from is required when mail.recipients is set")
		}
	}

	return nil
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	recipients := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	return recipients
}
