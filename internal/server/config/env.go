package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from environment variables. Unset or
// malformed values leave the current value in place.
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("RUN_ADDRESS"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv("CONFLICT_RETRY_COUNT"); ok {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.ConflictRetryCount = n
		}
	}
	if v, ok := os.LookupEnv("SPOILAGE_SWEEP_INTERVAL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.SpoilageSweepInterval = d
		}
	}
	if v, ok := os.LookupEnv("DEFAULT_SHELF_LIFE"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.DefaultShelfLife = d
		}
	}
	if v, ok := os.LookupEnv("S3_ROOT_USER"); ok {
		config.S3RootUser = v
	}
	if v, ok := os.LookupEnv("S3_ROOT_PASSWORD"); ok {
		config.S3RootPassword = v
	}
	if v, ok := os.LookupEnv("S3_BUCKET"); ok {
		config.S3Bucket = v
	}
	if v, ok := os.LookupEnv("S3_REGION"); ok {
		config.S3Region = v
	}
	if v, ok := os.LookupEnv("S3_BASE_ENDPOINT"); ok {
		config.S3BaseEndpoint = v
	}
}
