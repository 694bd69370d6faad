package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/beatmaplib/assetstore/internal/bytesize"
	"github.com/beatmaplib/assetstore/internal/cli/output"
	"github.com/beatmaplib/assetstore/internal/cli/timeutil"
	"github.com/beatmaplib/assetstore/pkg/config"
	"github.com/beatmaplib/assetstore/pkg/dbsession"
	"github.com/beatmaplib/assetstore/pkg/schema"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show asset store contents",
	Long: `Display a summary of the asset store's contents: how many beatmap
sets, beatmaps, and unique files it holds, and the total size of the
underlying blob data.

Examples:
  # Check status (uses default settings)
  assetstore status

  # Output as JSON
  assetstore status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// Status summarizes the asset store's contents.
type Status struct {
	BeatmapSets    int    `json:"beatmap_sets" yaml:"beatmap_sets"`
	Beatmaps       int    `json:"beatmaps" yaml:"beatmaps"`
	UniqueFiles    int    `json:"unique_files" yaml:"unique_files"`
	TotalSize      string `json:"total_size" yaml:"total_size"`
	DatabaseType   string `json:"database_type" yaml:"database_type"`
	BlobBackend    string `json:"blob_backend" yaml:"blob_backend"`
	LastDateAdded  string `json:"last_date_added,omitempty" yaml:"last_date_added,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	dbCfg := cfg.ToDBSessionConfig()
	manager, err := dbsession.Open(&dbCfg, nil)
	if err != nil {
		return fmt.Errorf("failed to open asset store: %w", err)
	}
	defer func() { _ = manager.Close() }()

	session, err := manager.ReadSession()
	if err != nil {
		return fmt.Errorf("failed to open read session: %w", err)
	}
	defer func() { _ = session.Close() }()

	sets, err := dbsession.All[schema.BeatmapSet](session)
	if err != nil {
		return err
	}
	beatmaps, err := dbsession.All[schema.Beatmap](session)
	if err != nil {
		return err
	}
	files, err := dbsession.All[schema.File](session)
	if err != nil {
		return err
	}

	var totalBytes int64
	for _, f := range files {
		totalBytes += f.Size
	}

	var lastAdded time.Time
	for _, s := range sets {
		if s.DateAdded.After(lastAdded) {
			lastAdded = s.DateAdded
		}
	}

	st := Status{
		BeatmapSets:  len(sets),
		Beatmaps:     len(beatmaps),
		UniqueFiles:  len(files),
		TotalSize:    bytesize.ByteSize(totalBytes).String(),
		DatabaseType: cfg.Storage.DatabaseType,
		BlobBackend:  cfg.Storage.BlobBackend,
	}
	if !lastAdded.IsZero() {
		st.LastDateAdded = timeutil.FormatTime(lastAdded.UTC().Format(time.RFC3339))
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, st)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, st)
	default:
		printStatusTable(st)
	}
	return nil
}

func printStatusTable(st Status) {
	fmt.Println()
	fmt.Println("Asset Store Status")
	fmt.Println("===================")
	fmt.Println()
	fmt.Printf("  Beatmap sets:  %d\n", st.BeatmapSets)
	fmt.Printf("  Beatmaps:      %d\n", st.Beatmaps)
	fmt.Printf("  Unique files:  %d\n", st.UniqueFiles)
	fmt.Printf("  Total size:    %s\n", st.TotalSize)
	fmt.Printf("  Database:      %s\n", st.DatabaseType)
	fmt.Printf("  Blob backend:  %s\n", st.BlobBackend)
	if st.LastDateAdded != "" {
		fmt.Printf("  Last import:   %s\n", st.LastDateAdded)
	}
	fmt.Println()
}
