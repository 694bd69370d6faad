package config

import (
	"context"
	"path/filepath"

	"github.com/beatmaplib/assetstore/pkg/blobstore"
	blobfs "github.com/beatmaplib/assetstore/pkg/blobstore/fs"
	blobs3 "github.com/beatmaplib/assetstore/pkg/blobstore/s3"
	"github.com/beatmaplib/assetstore/pkg/dbsession"
)

// ToDBSessionConfig translates the storage section into a dbsession.Config.
func (c *Config) ToDBSessionConfig() dbsession.Config {
	switch c.Storage.DatabaseType {
	case "postgres":
		return dbsession.Config{
			Type: dbsession.DatabaseTypePostgres,
			Postgres: dbsession.PostgresConfig{
				Host:         c.Storage.Postgres.Host,
				Port:         c.Storage.Postgres.Port,
				Database:     c.Storage.Postgres.Database,
				User:         c.Storage.Postgres.User,
				Password:     c.Storage.Postgres.Password,
				SSLMode:      c.Storage.Postgres.SSLMode,
				MaxOpenConns: c.Storage.Postgres.MaxOpenConns,
				MaxIdleConns: c.Storage.Postgres.MaxIdleConns,
			},
		}
	default:
		return dbsession.Config{
			Type:   dbsession.DatabaseTypeSQLite,
			SQLite: dbsession.SQLiteConfig{Path: filepath.Join(c.Storage.Root, c.Storage.DatabaseFile)},
		}
	}
}

// NewBlobStore constructs the Blob Store implementation selected by
// Storage.BlobBackend.
func (c *Config) NewBlobStore(ctx context.Context) (blobstore.Store, error) {
	switch c.Storage.BlobBackend {
	case "s3":
		return blobs3.New(ctx, blobs3.Config{
			Bucket:          c.Storage.S3.Bucket,
			Prefix:          c.Storage.S3.Prefix,
			Region:          c.Storage.S3.Region,
			Endpoint:        c.Storage.S3.Endpoint,
			AccessKeyID:     c.Storage.S3.AccessKeyID,
			SecretAccessKey: c.Storage.S3.SecretAccessKey,
			UsePathStyle:    c.Storage.S3.UsePathStyle,
		})
	default:
		return blobfs.NewWithPath(filepath.Join(c.Storage.Root, "files"))
	}
}
