package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Events   EventsConfig   `yaml:"events"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	APNs     APNsConfig     `yaml:"apns"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port" env:"SERVER_PORT"`
	Host string `yaml:"host" env:"SERVER_HOST"`
	// JoinAttemptsPerMinute limits join-by-code attempts per user
	JoinAttemptsPerMinute int `yaml:"join_attempts_per_minute" env:"JOIN_ATTEMPTS_PER_MINUTE"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE"`
	// Migrate applies embedded migrations on startup
	Migrate bool `yaml:"migrate" env:"DB_MIGRATE"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region     string `yaml:"region" env:"AWS_REGION"`
	S3Bucket   string `yaml:"s3_bucket" env:"AWS_S3_BUCKET"`
	AccessKey  string `yaml:"access_key" env:"AWS_ACCESS_KEY"`
	SecretKey  string `yaml:"secret_key" env:"AWS_SECRET_KEY"`
	Endpoint   string `yaml:"endpoint" env:"AWS_ENDPOINT"` // S3-compatible endpoint, empty for AWS
	DisableSSL bool   `yaml:"disable_ssl" env:"AWS_DISABLE_SSL"`
	// PublicURL is the base for stored object URLs, derived from bucket and region when empty
	PublicURL  string        `yaml:"public_url" env:"AWS_PUBLIC_URL"`
	PresignTTL time.Duration `yaml:"presign_ttl" env:"AWS_PRESIGN_TTL"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET"`
	TTL    time.Duration `yaml:"ttl" env:"JWT_TTL"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// EventsConfig holds defaults applied to new events
type EventsConfig struct {
	DefaultMaxGuests            int `yaml:"default_max_guests" env:"EVENTS_DEFAULT_MAX_GUESTS"`
	DefaultMaxCameraRollUploads int `yaml:"default_max_camera_roll_uploads" env:"EVENTS_DEFAULT_MAX_CAMERA_ROLL_UPLOADS"`
	CodeAttempts                int `yaml:"code_attempts" env:"EVENTS_CODE_ATTEMPTS"`
}

// UploadsConfig holds photo upload configuration
type UploadsConfig struct {
	// StrictQuota counts and reserves camera-roll uploads in one transaction
	StrictQuota bool `yaml:"strict_quota" env:"UPLOADS_STRICT_QUOTA"`
	MaxBatch    int  `yaml:"max_batch" env:"UPLOADS_MAX_BATCH"`
}

// RabbitMQConfig holds notification queue configuration
type RabbitMQConfig struct {
	URL   string `yaml:"url" env:"RABBITMQ_URL"`
	Queue string `yaml:"queue" env:"RABBITMQ_QUEUE"`
}

// APNsConfig holds Apple push configuration used by the worker
type APNsConfig struct {
	KeyFile    string `yaml:"key_file" env:"APNS_KEY_FILE"`
	KeyID      string `yaml:"key_id" env:"APNS_KEY_ID"`
	TeamID     string `yaml:"team_id" env:"APNS_TEAM_ID"`
	Topic      string `yaml:"topic" env:"APNS_TOPIC"`
	Production bool   `yaml:"production" env:"APNS_PRODUCTION"`
}

// Load reads configuration from a YAML file, then applies a .env file when
// present and environment overrides
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.JoinAttemptsPerMinute == 0 {
		c.Server.JoinAttemptsPerMinute = 10
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.AWS.PresignTTL == 0 {
		c.AWS.PresignTTL = 5 * time.Minute
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 365 * 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Events.DefaultMaxGuests == 0 {
		c.Events.DefaultMaxGuests = 7
	}
	if c.Events.DefaultMaxCameraRollUploads == 0 {
		c.Events.DefaultMaxCameraRollUploads = 5
	}
	if c.Events.CodeAttempts == 0 {
		c.Events.CodeAttempts = 10
	}
	if c.Uploads.MaxBatch == 0 {
		c.Uploads.MaxBatch = 50
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "event_notifications"
	}
}

// Validate checks settings the service cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if c.AWS.S3Bucket == "" {
		return fmt.Errorf("aws.s3_bucket is required")
	}
	if c.AWS.Region == "" {
		return fmt.Errorf("aws.region is required")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ObjectURL returns the public URL of an object key
func (c *AWSConfig) ObjectURL(key string) string {
	if c.PublicURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(c.PublicURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.S3Bucket, c.Region, key)
}
