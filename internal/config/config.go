package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	ServerURL    string        // SRAS_SERVER_URL (default "http://localhost:8000")
	PollInterval time.Duration // SRAS_POLL_INTERVAL (default 30s)
	NATSURL      string        // SRAS_NATS_URL (optional, empty = no events)

	// Evidence archive settings
	ArchiveDir        string // SRAS_ARCHIVE_DIR (enables local archive when set)
	ArchiveS3Bucket   string // SRAS_ARCHIVE_S3_BUCKET (enables S3 archive when set)
	ArchiveS3Endpoint string // SRAS_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region   string // SRAS_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Prefix   string // SRAS_ARCHIVE_S3_PREFIX (default "sras/evidence")
}

func Load() (*Config, error) {
	c := &Config{
		ServerURL:         envOrDefault("SRAS_SERVER_URL", "http://localhost:8000"),
		NATSURL:           os.Getenv("SRAS_NATS_URL"),
		ArchiveDir:        os.Getenv("SRAS_ARCHIVE_DIR"),
		ArchiveS3Bucket:   os.Getenv("SRAS_ARCHIVE_S3_BUCKET"),
		ArchiveS3Endpoint: os.Getenv("SRAS_ARCHIVE_S3_ENDPOINT"),
		ArchiveS3Region:   envOrDefault("SRAS_ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Prefix:   envOrDefault("SRAS_ARCHIVE_S3_PREFIX", "sras/evidence"),
	}

	intervalStr := envOrDefault("SRAS_POLL_INTERVAL", "30s")
	d, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("SRAS_POLL_INTERVAL: %w", err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("SRAS_POLL_INTERVAL must be positive, got %s", intervalStr)
	}
	c.PollInterval = d

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
