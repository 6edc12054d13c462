package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the application
type Config struct {
	API     APIConfig     `yaml:"api"`
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	AWS     AWSConfig     `yaml:"aws"`
	Booking BookingConfig `yaml:"booking"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig selects the remote marketplace backend
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"STAY_API_URL" env-default:"http://localhost:5000"`
	Timeout time.Duration `yaml:"timeout" env:"STAY_API_TIMEOUT" env-default:"10s"`
}

// ServerConfig holds the web server configuration
type ServerConfig struct {
	Host string `yaml:"host" env:"STAY_HOST" env-default:"0.0.0.0"`
	Port int    `yaml:"port" env:"STAY_PORT" env-default:"3000"`
}

// SessionConfig controls where the CLI keeps its auth token
type SessionConfig struct {
	Backend   string `yaml:"backend" env:"STAY_SESSION_BACKEND" env-default:"file"` // file, redis or memory
	File      string `yaml:"file" env:"STAY_SESSION_FILE"`
	RedisAddr string `yaml:"redis_addr" env:"STAY_REDIS_ADDR" env-default:"localhost:6379"`
	RedisKey  string `yaml:"redis_key" env:"STAY_REDIS_KEY" env-default:"stayweb:jwt_token"`
}

// AWSConfig holds the listing image bucket configuration
type AWSConfig struct {
	Region    string `yaml:"region" env:"AWS_REGION" env-default:"us-east-1"`
	S3Bucket  string `yaml:"s3_bucket" env:"STAY_S3_BUCKET"`
	AccessKey string `yaml:"access_key" env:"AWS_ACCESS_KEY_ID"`
	SecretKey string `yaml:"secret_key" env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint  string `yaml:"endpoint" env:"STAY_S3_ENDPOINT"`     // S3-compatible providers
	PublicURL string `yaml:"public_url" env:"STAY_S3_PUBLIC_URL"` // overrides the virtual-hosted URL
}

// BookingConfig holds booking flow tuning
type BookingConfig struct {
	RedirectDelay time.Duration `yaml:"redirect_delay" env:"STAY_BOOKING_REDIRECT_DELAY" env-default:"2s"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from a YAML file, letting env vars override it.
// A missing file is not an error; env vars and defaults are used instead.
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
		return &cfg, nil
	}

	// ReadConfig applies env overrides after parsing the file
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Addr returns the listen address for the web server
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
