package config

import (
	"strings"
	"testing"
)

func TestLoadAppliesDefaults(testContext *testing.T) {
	configViper := NewViper()
	configViper.Set("admin.token", "secret-token")

	cfg, err := Load(configViper)
	if err != nil {
		testContext.Fatalf("failed to load config: %v", err)
	}

	if cfg.HTTPAddress != "0.0.0.0:8080" {
		testContext.Fatalf("unexpected http address: %s", cfg.HTTPAddress)
	}
	if cfg.DatabaseDriver != DriverMySQL {
		testContext.Fatalf("unexpected database driver: %s", cfg.DatabaseDriver)
	}
	if cfg.DatabasePort != 3306 {
		testContext.Fatalf("unexpected database port: %d", cfg.DatabasePort)
	}
	if cfg.SMTPPort != 587 {
		testContext.Fatalf("unexpected smtp port: %d", cfg.SMTPPort)
	}
	if !cfg.IsProduction() {
		testContext.Fatalf("expected production by default")
	}
}

func TestLoadRequiresAdminToken(testContext *testing.T) {
	configViper := NewViper()

	_, err := Load(configViper)
	if err == nil || !strings.Contains(err.Error(), "admin.token") {
		testContext.Fatalf("expected admin token requirement, got %v", err)
	}
}

func TestLoadRejectsUnknownDriver(testContext *testing.T) {
	configViper := NewViper()
	configViper.Set("admin.token", "secret-token")
	configViper.Set("database.driver", "postgres")

	_, err := Load(configViper)
	if err == nil || !strings.Contains(err.Error(), "database.driver") {
		testContext.Fatalf("expected driver rejection, got %v", err)
	}
}

func TestLoadRequiresSQLitePath(testContext *testing.T) {
	configViper := NewViper()
	configViper.Set("admin.token", "secret-token")
	configViper.Set("database.driver", "sqlite")
	configViper.Set("database.path", "  ")

	_, err := Load(configViper)
	if err == nil || !strings.Contains(err.Error(), "database.path") {
		testContext.Fatalf("expected sqlite path requirement, got %v", err)
	}
}

func TestLoadRequiresSMTPHostWithRecipients(testContext *testing.T) {
	configViper := NewViper()
	configViper.Set("admin.token", "secret-token")
	configViper.Set("mail.recipients", "host@example.test")

	_, err := Load(configViper)
	if err == nil || !strings.Contains(err.Error(), "smtp.host") {
		testContext.Fatalf("expected smtp host requirement, got %v", err)
	}
}

func TestLoadSplitsRecipients(testContext *testing.T) {
	configViper := NewViper()
	configViper.Set("admin.token", "secret-token")
	configViper.Set("smtp.host", "mail.example.test")
	configViper.Set("mail.from", "rsvp@example.test")
	configViper.Set("mail.recipients", "one@example.test, two@example.test ,,")

	cfg, err := Load(configViper)
	if err != nil {
		testContext.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.MailRecipients) != 2 {
		testContext.Fatalf("expected 2 recipients, got %v", cfg.MailRecipients)
	}
	if cfg.MailRecipients[0] != "one@example.test" || cfg.MailRecipients[1] != "two@example.test" {
		testContext.Fatalf("unexpected recipients: %v", cfg.MailRecipients)
	}
}

func TestIsProductionTracksEnvironment(testContext *testing.T) {
	configViper := NewViper()
	configViper.Set("admin.token", "secret-token")
	configViper.Set("environment", "development")

	cfg, err := Load(configViper)
	if err != nil {
		testContext.Fatalf("failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		testContext.Fatalf("expected development environment")
	}
}
