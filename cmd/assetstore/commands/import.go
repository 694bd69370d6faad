package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/beatmaplib/assetstore/internal/beatmapimport"
	"github.com/beatmaplib/assetstore/internal/logger"
	archivezip "github.com/beatmaplib/assetstore/pkg/archive/zip"
	"github.com/beatmaplib/assetstore/pkg/config"
	"github.com/beatmaplib/assetstore/pkg/dbsession"
	"github.com/beatmaplib/assetstore/pkg/filestore"
	"github.com/beatmaplib/assetstore/pkg/importer"
)

var importLowPriority bool

var importCmd = &cobra.Command{
	Use:   "import <archive.osz>...",
	Short: "Import one or more beatmap set archives",
	Long: `Import submits each archive to the Archive Importer pipeline: it is
hashed, checked against existing sets for deduplication, and its contents
are populated into the database and file store.

Examples:
  # Import a single archive
  assetstore import "123 Artist - Title.osz"

  # Import several archives onto the low-priority queue
  assetstore import --low-priority *.osz`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importLowPriority, "low-priority", false, "submit to the low-priority queue instead of normal")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
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
	handler := beatmapimport.New(cfg.Storage.HashableExtensions...)

	im := importer.New(manager, files, handler, importer.Config{
		QueueSize:            cfg.Scheduler.NormalQueueSize,
		LowPriorityQueueSize: cfg.Scheduler.LowPriorityQueueSize,
	})
	im.SetMetrics(mtr)
	im.Start(ctx)
	defer im.Stop(30 * time.Second)

	if cfg.GC.Interval > 0 {
		bgGC := filestore.NewBackgroundGC(files, cfg.GC.Interval)
		bgGC.Start(ctx)
		defer bgGC.Stop()
	}

	priority := importer.PriorityNormal
	if importLowPriority {
		priority = importer.PriorityLow
	}

	// Archives are submitted concurrently; the importer's single-worker
	// queues serialize the actual pipeline runs, so submitting concurrently
	// only overlaps each call's hashing and upload I/O, not its commit.
	group, gctx := errgroup.WithContext(ctx)
	var printMu sync.Mutex

	for _, path := range args {
		path := path
		group.Go(func() error {
			name := filepath.Base(path)
			name = name[:len(name)-len(filepath.Ext(name))]

			archive, err := archivezip.Open(path, name)
			if err != nil {
				logger.Error("failed to open archive", "path", path, "error", err)
				return err
			}

			handle, err := im.Submit(gctx, archive, priority)
			if err != nil {
				logger.Error("import failed", "path", path, "error", err)
				return fmt.Errorf("import failed for %s: %w", path, err)
			}

			printMu.Lock()
			fmt.Printf("imported %s -> set %s\n", path, handle.PrimaryKey())
			printMu.Unlock()
			return nil
		})
	}

	return group.Wait()
}
