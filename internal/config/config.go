package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	CNN      CNNConfig      `mapstructure:"cnn"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Email    EmailConfig    `mapstructure:"email"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CNNConfig holds CNN Fear & Greed API configuration
type CNNConfig struct {
	APIURL         string        `mapstructure:"api_url"`
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// AlertsConfig holds alert engine and scheduling configuration
type AlertsConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	PanicRemindAfter time.Duration `mapstructure:"panic_remind_after"`
}

// EmailConfig holds SMTP delivery configuration
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	From     string `mapstructure:"from"`
	Password string `mapstructure:"password"`
}

// TelegramConfig holds the operator-channel configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	setDefaults(v)

	// Enable environment variable override (e.g. FEARWATCH_CNN_API_KEY)
	v.SetEnvPrefix("FEARWATCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("cnn.api_url", "https://cnn-fear-and-greed-index.p.rapidapi.com")
	v.SetDefault("cnn.timeout", "15s")
	v.SetDefault("cnn.max_retries", 3)
	v.SetDefault("cnn.retry_delay_base", "1s")

	v.SetDefault("alerts.poll_interval", "24h")
	v.SetDefault("alerts.panic_remind_after", "48h")

	v.SetDefault("email.enabled", true)
	v.SetDefault("email.smtp_port", 587)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("storage.db_path", "./data/fearwatch.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.CNN.APIURL == "" {
		return fmt.Errorf("cnn.api_url is required")
	}
	if c.CNN.APIKey == "" {
		return fmt.Errorf("cnn.api_key is required")
	}
	if c.CNN.Timeout < 1*time.Second {
		return fmt.Errorf("cnn.timeout must be at least 1 second")
	}

	if c.Alerts.PollInterval < 1*time.Minute {
		return fmt.Errorf("alerts.poll_interval must be at least 1 minute")
	}
	if c.Alerts.PanicRemindAfter < 1*time.Hour {
		return fmt.Errorf("alerts.panic_remind_after must be at least 1 hour")
	}

	if c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("email.smtp_host is required when email is enabled")
		}
		if c.Email.SMTPPort < 1 || c.Email.SMTPPort > 65535 {
			return fmt.Errorf("email.smtp_port must be a valid port")
		}
		if c.Email.From == "" {
			return fmt.Errorf("email.from is required when email is enabled")
		}
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
