package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beatmaplib/assetstore/internal/logger"
	"github.com/beatmaplib/assetstore/pkg/config"
	"github.com/beatmaplib/assetstore/pkg/dbsession"
	"github.com/beatmaplib/assetstore/pkg/schema"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations for the asset store's embedded database.

This command opens the configured database (SQLite or PostgreSQL), which
triggers GORM's auto-migration of every schema table, and verifies the
result by listing rulesets. It is required after upgrading assetstore when
schema changes have been made.

Examples:
  # Run migrations with default config
  assetstore migrate

  # Run migrations with custom config
  assetstore migrate --config /etc/assetstore/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	logger.Info("running database migrations", "type", cfg.Storage.DatabaseType)

	dbCfg := cfg.ToDBSessionConfig()
	manager, err := dbsession.Open(&dbCfg, nil)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() { _ = manager.Close() }()

	session, err := manager.ReadSession()
	if err != nil {
		return fmt.Errorf("migration verification failed: %w", err)
	}
	defer func() { _ = session.Close() }()

	if _, err := dbsession.All[schema.Ruleset](session); err != nil {
		return fmt.Errorf("migration verification failed: %w", err)
	}

	fmt.Printf("Migrations completed successfully (database type: %s)\n", cfg.Storage.DatabaseType)
	return nil
}
