package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ReadTimeout     string `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    string `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Ledger struct {
		// PromotionPolicy is "single" (one waitlist promotion per freed-seat event)
		// or "fill" (promote until the activity is full again).
		PromotionPolicy string `yaml:"promotion_policy" env:"LEDGER_PROMOTION_POLICY"`
	} `yaml:"ledger"`

	Notification struct {
		Driver      string `yaml:"driver" env:"NOTIFY_DRIVER"`
		Workers     int    `yaml:"workers" env:"NOTIFY_WORKERS"`
		QueueSize   int    `yaml:"queue_size" env:"NOTIFY_QUEUE_SIZE"`
		SendTimeout string `yaml:"send_timeout" env:"NOTIFY_SEND_TIMEOUT"`
		FromName    string `yaml:"from_name" env:"NOTIFY_FROM_NAME"`
		FromEmail   string `yaml:"from_email" env:"NOTIFY_FROM_EMAIL"`

		SMTP struct {
			Host     string `yaml:"host" env:"SMTP_HOST"`
			Port     int    `yaml:"port" env:"SMTP_PORT"`
			Username string `yaml:"username" env:"SMTP_USERNAME"`
			Password string `yaml:"password" env:"SMTP_PASSWORD"`
			UseTLS   bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
		} `yaml:"smtp"`

		SendGrid struct {
			APIKey string `yaml:"api_key" env:"SENDGRID_API_KEY"`
		} `yaml:"sendgrid"`

		AMQP struct {
			URL      string `yaml:"url" env:"AMQP_URL"`
			Exchange string `yaml:"exchange" env:"AMQP_EXCHANGE"`
		} `yaml:"amqp"`
	} `yaml:"notification"`
}

// Notification drivers
const (
	DriverLog      = "log"
	DriverSMTP     = "smtp"
	DriverSendGrid = "sendgrid"
	DriverAMQP     = "amqp"
)

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// The file is optional; defaults plus environment are enough to boot.
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ReadTimeout = "10s"
	config.Server.WriteTimeout = "10s"
	config.Server.ShutdownTimeout = "10s"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "samenactief"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "12h"
	config.JWT.Issuer = "samenactief.nl"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Ledger.PromotionPolicy = "single"

	config.Notification.Driver = DriverLog
	config.Notification.Workers = 2
	config.Notification.QueueSize = 256
	config.Notification.SendTimeout = "15s"
	config.Notification.FromName = "SamenActief"
	config.Notification.FromEmail = "noreply@samenactief.nl"
	config.Notification.SMTP.Port = 587
	config.Notification.AMQP.Exchange = "notifications"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	durations := map[string]string{
		"JWT access token expiration": config.JWT.AccessTokenExpiration,
		"database conn max lifetime":  config.Database.ConnMaxLifetime,
		"notification send timeout":   config.Notification.SendTimeout,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	switch strings.ToLower(config.Ledger.PromotionPolicy) {
	case "single", "fill":
	default:
		return fmt.Errorf("ledger promotion policy must be \"single\" or \"fill\", got %q", config.Ledger.PromotionPolicy)
	}

	switch config.Notification.Driver {
	case DriverLog:
	case DriverSMTP:
		if config.Notification.SMTP.Host == "" {
			return fmt.Errorf("smtp host is required for the smtp notification driver")
		}
	case DriverSendGrid:
		if config.Notification.SendGrid.APIKey == "" {
			return fmt.Errorf("sendgrid api key is required for the sendgrid notification driver")
		}
	case DriverAMQP:
		if config.Notification.AMQP.URL == "" {
			return fmt.Errorf("amqp url is required for the amqp notification driver")
		}
	default:
		return fmt.Errorf("unknown notification driver %q", config.Notification.Driver)
	}

	if config.Notification.Workers < 1 {
		return fmt.Errorf("notification workers must be at least 1")
	}
	if config.Notification.QueueSize < 1 {
		return fmt.Errorf("notification queue size must be at least 1")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
