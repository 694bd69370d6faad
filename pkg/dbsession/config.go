// Package dbsession owns the single embedded object database and grants the
// three kinds of access described by the session manager component: a
// long-lived update session bound to one designated goroutine, ephemeral
// read sessions usable from any goroutine, and serialized write sessions.
// It also implements the global quiesce operation (BlockAllOperations).
package dbsession

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/beatmaplib/assetstore/pkg/schema"
)

// DatabaseType selects the embedded engine backing a Manager.
type DatabaseType string

const (
	// DatabaseTypeSQLite is the default: a single local file, pure Go, no
	// cgo, opened with WAL journaling for concurrent readers.
	DatabaseTypeSQLite DatabaseType = "sqlite"

	// DatabaseTypePostgres is an alternate backend carried from the
	// reference stack. It does not grant multi-node write access: the
	// Manager still serializes all writers behind one lock, so the
	// single-writer non-goal holds regardless of backend.
	DatabaseTypePostgres DatabaseType = "postgres"
)

// SQLiteConfig configures the default local-file backend.
type SQLiteConfig struct {
	// Path is the filesystem path to the database file, e.g.
	// <storage_root>/library.db.
	Path string
}

// PostgresConfig configures the alternate backend.
type PostgresConfig struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

func (c *PostgresConfig) dsn() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// Config holds session manager configuration.
type Config struct {
	Type     DatabaseType
	SQLite   SQLiteConfig
	Postgres PostgresConfig
}

// ApplyDefaults fills in unset fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = DatabaseTypeSQLite
	}
	if c.Type == DatabaseTypePostgres {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 10
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 2
		}
	}
}

// Validate checks the configuration is complete enough to open.
func (c *Config) Validate() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DatabaseTypePostgres:
		if c.Postgres.Host == "" || c.Postgres.Database == "" || c.Postgres.User == "" {
			return fmt.Errorf("postgres host, database and user are required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

func open(config *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch config.Type {
	case DatabaseTypeSQLite:
		if dir := filepath.Dir(config.SQLite.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		// WAL journaling lets read sessions proceed while a write session
		// holds its transaction open; busy_timeout absorbs brief lock
		// contention instead of failing immediately.
		dsn := config.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		dialector = sqlite.Open(dsn)

	case DatabaseTypePostgres:
		dialector = postgres.Open(config.Postgres.dsn())

	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if config.Type == DatabaseTypePostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}

	return db, nil
}

// schemaMeta records the monotonically increasing schema version, per
// spec §4.2's "schema upgrade" extension point. AutoMigrate handles the
// structural change; this row is the version the host compares against to
// decide whether a migration callback needs to run.
type schemaMeta struct {
	ID      uint `gorm:"primaryKey"`
	Version int  `gorm:"column:version;not null"`
}

func (schemaMeta) TableName() string { return "schema_meta" }

// CurrentSchemaVersion is bumped whenever the schema package's models
// change in a way that requires a migration callback.
const CurrentSchemaVersion = 1

// MigrationFunc runs when the persisted schema version is lower than
// CurrentSchemaVersion. It is a no-op extension point in this core.
type MigrationFunc func(db *gorm.DB, fromVersion, toVersion int) error

// allTables lists every model Reset must drop, including the internal
// schema-version row.
func allTables() []any {
	return append(schema.AllModels(), &schemaMeta{})
}

func migrate(db *gorm.DB, fn MigrationFunc) error {
	if err := db.AutoMigrate(append(schema.AllModels(), &schemaMeta{})...); err != nil {
		return err
	}

	var meta schemaMeta
	err := db.First(&meta).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		meta = schemaMeta{Version: CurrentSchemaVersion}
		return db.Create(&meta).Error
	case err != nil:
		return err
	}

	if meta.Version < CurrentSchemaVersion {
		if fn != nil {
			if err := fn(db, meta.Version, CurrentSchemaVersion); err != nil {
				return err
			}
		}
		meta.Version = CurrentSchemaVersion
		return db.Save(&meta).Error
	}

	return nil
}
