package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	sslModeDisable = "disable"
	sslModeRequire = "require"

	MediaBackendLocal = "local"
	MediaBackendS3    = "s3"

	envPrefix = "FOODGRAM"
)

type (
	Config struct {
		Host      string `mapstructure:"HOST"`
		Port      string `mapstructure:"PORT"`
		GRPCPort  string `mapstructure:"GRPC_PORT"`
		PublicURL string `mapstructure:"PUBLIC_URL"`
		PageSize  int    `mapstructure:"PAGE_SIZE"`

		DBHost     string `mapstructure:"DB_HOST"`
		DBPort     string `mapstructure:"DB_PORT"`
		DBUser     string `mapstructure:"DB_USER"`
		DBPassword string `mapstructure:"DB_PASSWORD"`
		DBName     string `mapstructure:"DB_NAME"`
		DBSSLMode  string `mapstructure:"DB_SSL_MODE"`

		LogLevel       string `mapstructure:"LOG_LEVEL"`
		LogDevelopment bool   `mapstructure:"LOG_DEVELOPMENT"`

		MediaBackend string `mapstructure:"MEDIA_BACKEND"`
		MediaRoot    string `mapstructure:"MEDIA_ROOT"`
		MediaURL     string `mapstructure:"MEDIA_URL"`

		S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
		S3Region    string `mapstructure:"S3_REGION"`
		S3Bucket    string `mapstructure:"S3_BUCKET"`
		S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
		S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
		S3PublicURL string `mapstructure:"S3_PUBLIC_URL"`
	}
)

var defaults = map[string]interface{}{
	"HOST":            "0.0.0.0",
	"PORT":            "8000",
	"GRPC_PORT":       "9000",
	"PUBLIC_URL":      "http://localhost:8000",
	"PAGE_SIZE":       6,
	"DB_HOST":         "0.0.0.0",
	"DB_PORT":         "5432",
	"DB_USER":         "user",
	"DB_PASSWORD":     "password",
	"DB_NAME":         "foodgram",
	"DB_SSL_MODE":     sslModeDisable,
	"LOG_LEVEL":       "info",
	"LOG_DEVELOPMENT": false,
	"MEDIA_BACKEND":   MediaBackendLocal,
	"MEDIA_ROOT":      "media",
	"MEDIA_URL":       "/media/",
	"S3_ENDPOINT":     "",
	"S3_REGION":       "us-east-1",
	"S3_BUCKET":       "",
	"S3_ACCESS_KEY":   "",
	"S3_SECRET_KEY":   "",
	"S3_PUBLIC_URL":   "",
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)

	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "bind env %s", key)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func (c *Config) HTTPListen() string {
	return c.Host + ":" + c.Port
}

func (c *Config) GRPCListen() string {
	return c.Host + ":" + c.GRPCPort
}

func validate(cfg *Config) error {
	if cfg.DBSSLMode != sslModeDisable && cfg.DBSSLMode != sslModeRequire {
		return errors.New(fmt.Sprintf("DB SSL mode is invalid: %s", cfg.DBSSLMode))
	}

	switch cfg.MediaBackend {
	case MediaBackendLocal:
		if cfg.MediaRoot == "" {
			return errors.New("MEDIA_ROOT is required for the local media backend")
		}
	case MediaBackendS3:
		if cfg.S3Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 media backend")
		}
	default:
		return errors.New(fmt.Sprintf("media backend is invalid: %s", cfg.MediaBackend))
	}

	if cfg.PageSize <= 0 {
		return errors.New(fmt.Sprintf("page size must be positive: %d", cfg.PageSize))
	}

	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	if !strings.HasSuffix(cfg.MediaURL, "/") {
		cfg.MediaURL += "/"
	}

	return nil
}
