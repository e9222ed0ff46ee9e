package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
cnn:
  api_key: "test-key"
  timeout: 10s

alerts:
  poll_interval: 24h
  panic_remind_after: 48h

email:
  enabled: true
  smtp_host: "smtp.example.com"
  smtp_port: 587
  from: "alerts@example.com"
  password: "secret"

telegram:
  enabled: true
  bot_token: "test_token"
  chat_id: "12345"

storage:
  db_path: "./data/test.db"

logging:
  level: "info"
  format: "json"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.CNN.APIKey != "test-key" {
		t.Errorf("Unexpected API key: %q", cfg.CNN.APIKey)
	}
	if cfg.CNN.APIURL == "" {
		t.Error("api_url default should apply")
	}
	if cfg.Alerts.PollInterval != 24*time.Hour {
		t.Errorf("Unexpected poll interval: %v", cfg.Alerts.PollInterval)
	}
	if cfg.Alerts.PanicRemindAfter != 48*time.Hour {
		t.Errorf("Unexpected remind interval: %v", cfg.Alerts.PanicRemindAfter)
	}
	if cfg.Email.SMTPHost != "smtp.example.com" {
		t.Errorf("Unexpected SMTP host: %q", cfg.Email.SMTPHost)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func validConfig() *Config {
	return &Config{
		CNN: CNNConfig{
			APIURL:  "https://example.com",
			APIKey:  "key",
			Timeout: 15 * time.Second,
		},
		Alerts: AlertsConfig{
			PollInterval:     24 * time.Hour,
			PanicRemindAfter: 48 * time.Hour,
		},
		Email: EmailConfig{
			Enabled:  true,
			SMTPHost: "smtp.example.com",
			SMTPPort: 587,
			From:     "alerts@example.com",
		},
		Storage: StorageConfig{DBPath: "./data/test.db"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing api key", func(c *Config) { c.CNN.APIKey = "" }, true},
		{"poll interval too short", func(c *Config) { c.Alerts.PollInterval = 30 * time.Second }, true},
		{"remind interval too short", func(c *Config) { c.Alerts.PanicRemindAfter = 30 * time.Minute }, true},
		{"email enabled without host", func(c *Config) { c.Email.SMTPHost = "" }, true},
		{"email enabled without from", func(c *Config) { c.Email.From = "" }, true},
		{"email disabled ignores host", func(c *Config) { c.Email.Enabled = false; c.Email.SMTPHost = "" }, false},
		{"telegram enabled without token", func(c *Config) { c.Telegram.Enabled = true }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
