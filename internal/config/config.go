// Package config assembles the server settings from defaults, an optional
// YAML file, the process environment and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	BlobBackendDisk = "disk"
	BlobBackendS3   = "s3"
	BlobBackendGCS  = "gcs"

	PayPalModeSandbox = "sandbox"
	PayPalModeLive    = "live"
)

type Config struct {
	Port     string `yaml:"port"`
	MongoURI string `yaml:"mongodb_uri"`
	DBName   string `yaml:"db_name"`
	BaseURL  string `yaml:"base_url"`
	LogLevel string `yaml:"log_level"`

	// Atlas-style credentials, used to build MongoURI when it is not set.
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host"`

	FreeJobQuota        int `yaml:"free_job_quota"`
	PaidPostsPerPayment int `yaml:"paid_posts_per_payment"`

	BlobBackend    string `yaml:"blob_backend"`
	UploadDir      string `yaml:"upload_dir"`
	UploadMaxBytes int64  `yaml:"upload_max_bytes"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3Region       string `yaml:"s3_region"`
	S3Endpoint     string `yaml:"s3_endpoint"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	GCSBucket      string `yaml:"gcs_bucket"`

	PayPalClientID     string `yaml:"paypal_client_id"`
	PayPalClientSecret string `yaml:"paypal_client_secret"`
	PayPalMode         string `yaml:"paypal_mode"`
	StateSecret        string `yaml:"state_secret"`

	ResendAPIKey string `yaml:"resend_api_key"`
	FromEmail    string `yaml:"from_email"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoadDefaults fills in development defaults.
func (c *Config) LoadDefaults() {
	c.Port = "2000"
	c.DBName = "JamJob"
	c.BaseURL = "http://localhost:2000"
	c.LogLevel = "info"
	c.FreeJobQuota = 2
	c.PaidPostsPerPayment = 1
	c.BlobBackend = BlobBackendDisk
	c.UploadDir = "uploads"
	c.UploadMaxBytes = 5 << 20
	c.S3Region = "us-east-1"
	c.PayPalMode = PayPalModeSandbox
	c.ShutdownTimeout = 10 * time.Second
}

// Load applies defaults, then the YAML file at path (if any), then the
// environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := parseYAML(cfg, path); err != nil {
			return nil, err
		}
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	cfg.resolveMongoURI()
	return cfg, nil
}

func (c *Config) resolveMongoURI() {
	if c.MongoURI != "" || c.DBUser == "" || c.DBHost == "" {
		return
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	c.MongoURI = u.String()
}

// PayPalEnabled reports whether checkout endpoints can reach PayPal.
func (c *Config) PayPalEnabled() bool {
	return c.PayPalClientID != ""
}

func (c *Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGODB_URI is required"))
	}
	if c.FreeJobQuota < 0 {
		errs = append(errs, errors.New("free job quota must not be negative"))
	}
	if c.PaidPostsPerPayment < 1 {
		errs = append(errs, errors.New("paid posts per payment must be at least 1"))
	}
	if c.UploadMaxBytes <= 0 {
		errs = append(errs, errors.New("upload max bytes must be positive"))
	}

	switch strings.ToLower(c.BlobBackend) {
	case BlobBackendDisk:
	case BlobBackendS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 blob backend"))
		}
	case BlobBackendGCS:
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required for the gcs blob backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob backend %q", c.BlobBackend))
	}

	if c.PayPalEnabled() {
		if c.PayPalClientSecret == "" {
			errs = append(errs, errors.New("PAYPAL_CLIENT_SECRET is required when PAYPAL_CLIENT_ID is set"))
		}
		if c.StateSecret == "" {
			errs = append(errs, errors.New("STATE_SECRET is required when PayPal is enabled"))
		}
		if c.PayPalMode != PayPalModeSandbox && c.PayPalMode != PayPalModeLive {
			errs = append(errs, fmt.Errorf("unknown PayPal mode %q", c.PayPalMode))
		}
	}
	return errors.Join(errs...)
}
