package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks cfg against its struct tags and cross-field rules that
// the tags alone can't express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Storage.BlobBackend == "s3" && cfg.Storage.S3.Bucket == "" {
		return fmt.Errorf("invalid configuration: storage.s3.bucket is required when storage.blob_backend is s3")
	}
	if cfg.Storage.DatabaseType == "postgres" && cfg.Storage.Postgres.Database == "" {
		return fmt.Errorf("invalid configuration: storage.postgres.database is required when storage.database_type is postgres")
	}
	return nil
}
