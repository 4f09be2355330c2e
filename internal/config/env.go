package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// parseEnv overlays every variable that is set on top of cfg.
func parseEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.MongoURI = getEnv("MONGODB_URI", cfg.MongoURI)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.BaseURL = getEnv("BASE_URL", cfg.BaseURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.BlobBackend = getEnv("BLOB_BACKEND", cfg.BlobBackend)
	cfg.UploadDir = getEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.S3Bucket = getEnv("S3_BUCKET", cfg.S3Bucket)
	cfg.S3Region = getEnv("S3_REGION", cfg.S3Region)
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKey = getEnv("S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getEnv("S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.GCSBucket = getEnv("GCS_BUCKET", cfg.GCSBucket)

	cfg.PayPalClientID = getEnv("PAYPAL_CLIENT_ID", cfg.PayPalClientID)
	cfg.PayPalClientSecret = getEnv("PAYPAL_CLIENT_SECRET", cfg.PayPalClientSecret)
	cfg.PayPalMode = getEnv("PAYPAL_MODE", cfg.PayPalMode)
	cfg.StateSecret = getEnv("STATE_SECRET", cfg.StateSecret)

	cfg.ResendAPIKey = getEnv("RESEND_API_KEY", cfg.ResendAPIKey)
	cfg.FromEmail = getEnv("FROM_EMAIL", cfg.FromEmail)

	var err error
	if cfg.FreeJobQuota, err = getEnvInt("FREE_JOB_QUOTA", cfg.FreeJobQuota); err != nil {
		return err
	}
	if cfg.PaidPostsPerPayment, err = getEnvInt("PAID_POSTS_PER_PAYMENT", cfg.PaidPostsPerPayment); err != nil {
		return err
	}
	maxBytes, err := getEnvInt("UPLOAD_MAX_BYTES", int(cfg.UploadMaxBytes))
	if err != nil {
		return err
	}
	cfg.UploadMaxBytes = int64(maxBytes)

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
