package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/beatmaplib/assetstore/internal/cli/prompt"
	"github.com/beatmaplib/assetstore/internal/logger"
	"github.com/beatmaplib/assetstore/pkg/config"
	"github.com/beatmaplib/assetstore/pkg/dbsession"
	"github.com/beatmaplib/assetstore/pkg/filestore"
)

var gcForce bool

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Reclaim unreferenced files",
	Long: `gc sweeps the File Store, deleting blobs whose File record has no
remaining NamedFileUsage backlinks and removing their index rows.

Examples:
  # Run a single reclamation sweep
  assetstore gc

  # Skip the confirmation prompt
  assetstore gc --force`,
	RunE: runGC,
}

func init() {
	gcCmd.Flags().BoolVarP(&gcForce, "force", "f", false, "skip the confirmation prompt")
}

func runGC(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	proceed, err := prompt.ConfirmWithForce("reclaim unreferenced files now", gcForce)
	if err != nil {
		return err
	}
	if !proceed {
		fmt.Println("aborted")
		return nil
	}

	ctx := context.Background()

	telemetryShutdown, err := InitTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = telemetryShutdown(ctx) }()

	mtr, metricsShutdown, err := InitMetrics(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = metricsShutdown(ctx) }()

	dbCfg := cfg.ToDBSessionConfig()
	manager, err := dbsession.Open(&dbCfg, nil)
	if err != nil {
		return fmt.Errorf("failed to open asset store: %w", err)
	}
	manager.SetMetrics(mtr)
	defer func() { _ = manager.Close() }()

	blobs, err := cfg.NewBlobStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	files := filestore.New(blobs, manager)
	files.SetMetrics(mtr)

	start := time.Now()
	reclaimed, err := files.Cleanup(ctx)
	if err != nil {
		return fmt.Errorf("gc failed: %w", err)
	}

	logger.Info("gc completed", "reclaimed", reclaimed, "duration_ms", logger.Duration(start))
	fmt.Printf("reclaimed %d unreferenced file(s)\n", reclaimed)
	return nil
}
