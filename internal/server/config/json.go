package config

import (
	"encoding/json"
	"os"

	"github.com/JoaoMarques95/dinners/internal/flagx"
	"github.com/JoaoMarques95/dinners/internal/timex"
)

// JsonConfig is the DTO for the optional JSON configuration file. Interval
// fields use timex.Duration, which accepts both "72h" strings and nanosecond
// integers.
type JsonConfig struct {
	EndpointAddrHTTP      string                    `json:"endpoint_addr_http"`
	DatabaseDSN           string                    `json:"database_dsn"`
	SecretKey             string                    `json:"secret_key"`
	ConflictRetryCount    *uint64                   `json:"conflict_retry_count"`
	SpoilageSweepInterval timex.Duration            `json:"spoilage_sweep_interval"`
	DefaultShelfLife      timex.Duration            `json:"default_shelf_life"`
	ShelfLife             map[string]timex.Duration `json:"shelf_life"`
	S3RootUser            string                    `json:"s3_root_user"`
	S3RootPassword        string                    `json:"s3_root_password"`
	S3Bucket              string                    `json:"s3_bucket"`
	S3Region              string                    `json:"s3_region"`
	S3BaseEndpoint        string                    `json:"s3_base_endpoint"`
}

// parseJson overlays configuration values from the JSON file named by the
// -c/-config flags, if any. Zero values in the file leave Config untouched.
// A file that cannot be read or parsed panics: a requested config file that
// does not apply is a deployment error.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.ConflictRetryCount != nil {
		config.ConflictRetryCount = *c.ConflictRetryCount
	}
	if c.SpoilageSweepInterval.Duration != 0 {
		config.SpoilageSweepInterval = c.SpoilageSweepInterval.Duration
	}
	if c.DefaultShelfLife.Duration != 0 {
		config.DefaultShelfLife = c.DefaultShelfLife.Duration
	}
	for category, d := range c.ShelfLife {
		config.ShelfLife[category] = d.Duration
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
}
