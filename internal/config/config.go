package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string // PLENUM_DATABASE_URL (required)
	NATSURL     string // PLENUM_NATS_URL (required)
	HTTPAddr    string // PLENUM_HTTP_ADDR (default ":8080")
	AuthToken   string // PLENUM_AUTH_TOKEN (optional, empty = auth disabled)

	// Event channel settings
	SessionShards int // PLENUM_SESSION_SHARDS (default 3)

	// Sweeper settings
	SweepInterval time.Duration // PLENUM_SWEEP_INTERVAL (default 1m)

	// Callback settings
	CallbackConfig string // PLENUM_CALLBACK_CONFIG (optional TOML file path)

	// Eligibility settings
	EligibilityURL string // PLENUM_ELIGIBILITY_URL (optional, empty = simulated gateway)

	// Archive settings
	ArchiveInterval   time.Duration // PLENUM_ARCHIVE_INTERVAL (default 3m)
	ArchiveS3Bucket   string        // PLENUM_ARCHIVE_S3_BUCKET (enables S3 when set)
	ArchiveS3Endpoint string        // PLENUM_ARCHIVE_S3_ENDPOINT (custom endpoint for MinIO)
	ArchiveS3Region   string        // PLENUM_ARCHIVE_S3_REGION (default "us-east-1")
	ArchiveS3Key      string        // PLENUM_ARCHIVE_S3_KEY (default "plenum/archive.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:       os.Getenv("PLENUM_DATABASE_URL"),
		NATSURL:           os.Getenv("PLENUM_NATS_URL"),
		HTTPAddr:          envOrDefault("PLENUM_HTTP_ADDR", ":8080"),
		AuthToken:         os.Getenv("PLENUM_AUTH_TOKEN"),
		CallbackConfig:    os.Getenv("PLENUM_CALLBACK_CONFIG"),
		EligibilityURL:    os.Getenv("PLENUM_ELIGIBILITY_URL"),
		ArchiveS3Bucket:   os.Getenv("PLENUM_ARCHIVE_S3_BUCKET"),
		ArchiveS3Endpoint: os.Getenv("PLENUM_ARCHIVE_S3_ENDPOINT"),
		ArchiveS3Region:   envOrDefault("PLENUM_ARCHIVE_S3_REGION", "us-east-1"),
		ArchiveS3Key:      envOrDefault("PLENUM_ARCHIVE_S3_KEY", "plenum/archive.jsonl"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("PLENUM_DATABASE_URL is required")
	}
	if c.NATSURL == "" {
		return nil, fmt.Errorf("PLENUM_NATS_URL is required")
	}

	shardsStr := envOrDefault("PLENUM_SESSION_SHARDS", "3")
	shards, err := strconv.Atoi(shardsStr)
	if err != nil || shards < 1 {
		return nil, fmt.Errorf("PLENUM_SESSION_SHARDS must be a positive integer, got %q", shardsStr)
	}
	c.SessionShards = shards

	sweepStr := envOrDefault("PLENUM_SWEEP_INTERVAL", "1m")
	sweep, err := time.ParseDuration(sweepStr)
	if err != nil {
		return nil, fmt.Errorf("PLENUM_SWEEP_INTERVAL: %w", err)
	}
	c.SweepInterval = sweep

	archiveStr := envOrDefault("PLENUM_ARCHIVE_INTERVAL", "3m")
	archive, err := time.ParseDuration(archiveStr)
	if err != nil {
		return nil, fmt.Errorf("PLENUM_ARCHIVE_INTERVAL: %w", err)
	}
	c.ArchiveInterval = archive

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
