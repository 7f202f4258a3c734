// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package config reads the service settings from the environment with
// caarlos0/env. A local .env file, when present, is loaded first.
//
//	cfg, err := config.Load()
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Store Drivers

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// # Configuration Schema

// Config holds all runtime configuration for the owner authentication service.
type Config struct {
	// Server settings
	ServerPort     string   `env:"SERVER_PORT"      envDefault:"8080"`
	Environment    string   `env:"ENVIRONMENT"      envDefault:"development"`
	Debug          bool     `env:"DEBUG"            envDefault:"false"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"  envSeparator:","`

	// Persistent store selection
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	// Relational Database (PostgreSQL)
	DatabaseURL   string `env:"DATABASE_URL"`
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Document Database (MongoDB)
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"ownerauth"`

	// Key-Value Store (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing
	JWTPrivKeyPath  string        `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath   string        `env:"JWT_PUBLIC_KEY_PATH,required"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	// One-time code windows
	OTPValidityMinutes          int `env:"OTP_VALIDITY_MINUTES"           envDefault:"10"`
	ResetOTPValidityHours       int `env:"RESET_OTP_VALIDITY_HOURS"       envDefault:"1"`
	ResetRejectionCooldownHours int `env:"RESET_REJECTION_COOLDOWN_HOURS" envDefault:"24"`

	// Two-factor enrolment
	TOTPIssuer string `env:"TOTP_ISSUER" envDefault:"CMS4 CEG"`

	// Registration policy
	RegistrationOpen        bool   `env:"REGISTRATION_OPEN"         envDefault:"false"`
	RegistrationDefaultRole string `env:"REGISTRATION_DEFAULT_ROLE" envDefault:"SUPER_ADMIN"`

	// Entity counter
	CounterSecret string `env:"COUNTER_SECRET,required,notEmpty"`
	CounterAPIURL string `env:"COUNTER_API_URL"`

	// Email delivery (SendGrid)
	SendGridAPIKey        string `env:"SENDGRID_API_KEY"`
	SendGridFromEmail     string `env:"SENDGRID_FROM_EMAIL"`
	SendGridFromName      string `env:"SENDGRID_FROM_NAME" envDefault:"CMS"`
	SendGridOTPTemplateID string `env:"SENDGRID_OTP_TEMPLATE_ID"`

	// SMS gateway
	SMSGatewayURL string `env:"SMS_GATEWAY_URL"`
	SMSUsername   string `env:"SMS_USERNAME"`
	SMSPassword   string `env:"SMS_PASSWORD"`
	SMSSenderID   string `env:"SMS_SENDER_ID"`
	SMSAPIKey     string `env:"SMS_API_KEY"`
	SMSTemplateID string `env:"SMS_TEMPLATE_ID"`

	// Notification dispatch
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`

	// Downstream user mirroring
	UAMasterURL        string `env:"UA_MASTER_URL"`
	MediaMasterURL     string `env:"MEDIA_MASTER_URL"`
	ActivityServiceURL string `env:"ACTIVITY_SERVICE_URL"`
	ServiceToken       string `env:"SERVICE_TOKEN"`

	// Domain event sink (Kafka)
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"   envDefault:"ownerauth.events"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	// A missing .env file is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces cross-field requirements that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres store")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("config: MONGO_URI is required for the mongo store")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.OTPValidityMinutes <= 0 || c.ResetOTPValidityHours <= 0 {
		return errors.New("config: OTP validity windows must be positive")
	}

	if c.ResetRejectionCooldownHours < 0 {
		return errors.New("config: RESET_REJECTION_COOLDOWN_HOURS must not be negative")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Origins returns the configured CORS origins.
func (c *Config) Origins() []string {
	return c.AllowedOrigins
}

// ResetRejectionCooldown is how long a rejected requester must wait before filing again.
func (c *Config) ResetRejectionCooldown() time.Duration {
	return time.Duration(c.ResetRejectionCooldownHours) * time.Hour
}
