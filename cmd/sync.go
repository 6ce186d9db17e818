package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"catalog-sync/core/config"
	"catalog-sync/core/database"
	"catalog-sync/core/lock"
	"catalog-sync/core/logger"
	"catalog-sync/core/reconcile"
	"catalog-sync/core/storage"
	"catalog-sync/feature/library"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// progressSteps is the resolution of the terminal progress bar.
const progressSteps = 1000

var (
	syncServerID   string
	syncServerName string
	syncFile       string
	syncObject     string
	syncQuiet      bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile a library snapshot into the catalog",
	Long: `Reads a library snapshot from a local file (--file) or from the snapshot
bucket (--object, "latest" picks the newest) and merges it into the catalog
for one server.`,
	Example: `  catalog-sync sync --server home --file ./library.json
  catalog-sync sync --server home --name "Home Jellyfin" --object latest`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncServerID, "server", "", "Remote server id (required)")
	syncCmd.Flags().StringVar(&syncServerName, "name", "", "Remote server display name (defaults to the id)")
	syncCmd.Flags().StringVar(&syncFile, "file", "", "Path to a snapshot JSON file")
	syncCmd.Flags().StringVar(&syncObject, "object", "", "Snapshot object key in the bucket, or \"latest\"")
	syncCmd.Flags().BoolVar(&syncQuiet, "quiet", false, "Disable the progress bar")
	_ = syncCmd.MarkFlagRequired("server")
	syncCmd.MarkFlagsMutuallyExclusive("file", "object")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncFile == "" && syncObject == "" {
		return errors.New("one of --file or --object is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	var client storage.Client
	if syncObject != "" {
		if client, err = storage.NewClient(cfg.Storage); err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
	}

	locker, err := lock.New(cfg.Lock)
	if err != nil {
		return fmt.Errorf("failed to create sync lock: %w", err)
	}

	svc := library.NewService(db, client, cfg.Storage, cfg.Sync, locker, l)
	if err := svc.Repository().AutoMigrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate library tables: %w", err)
	}

	owner := reconcile.Owner{ID: syncServerID, Name: syncServerName}

	var reporter reconcile.Reporter = reconcile.NopReporter{}
	var bar *progressbar.ProgressBar
	var async *reconcile.AsyncReporter
	if !syncQuiet {
		bar = newSyncBar()
		async = reconcile.NewAsyncReporter(reconcile.ReporterFunc(func(fraction float64, stage string) {
			bar.Describe(stage)
			_ = bar.Set(int(fraction * progressSteps))
		}))
		defer async.Close()
		reporter = async
	}

	var result *library.SyncResult
	if syncFile != "" {
		l.Info("Loading snapshot file", zap.String("file", syncFile))
		snap, err := library.LoadSnapshotFile(syncFile)
		if err != nil {
			return err
		}
		result, err = svc.Sync(ctx, owner, snap, reporter)
		if err != nil {
			return err
		}
	} else {
		result, err = svc.SyncObject(ctx, owner, syncObject, reporter)
		if err != nil {
			return err
		}
	}

	if async != nil {
		async.Close()
		_ = bar.Finish()
	}

	printSyncSummary(result)
	return nil
}

func newSyncBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(progressSteps,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Starting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func printSyncSummary(r *library.SyncResult) {
	s := r.Summary
	fmt.Println("\n=== Library Sync ===")
	fmt.Printf("Server:            %s (%s)\n", r.Server.Name, r.Server.ID)
	fmt.Printf("Run:               %s\n", r.RunID)
	fmt.Printf("Received:          %s\n", humanize.Comma(int64(s.Received)))
	fmt.Printf("Duplicates:        %s\n", humanize.Comma(int64(s.Duplicates)))
	fmt.Printf("Created:           %s\n", humanize.Comma(int64(s.Created)))
	fmt.Printf("Updated:           %s\n", humanize.Comma(int64(s.Updated)))
	fmt.Printf("Favorite Changes:  %s\n", humanize.Comma(int64(s.FavoriteChanges)))
	fmt.Printf("Unknown Genre:     %s\n", humanize.Comma(int64(s.UnknownGenre)))
	fmt.Printf("Unresolved Albums: %s\n", humanize.Comma(int64(s.UnresolvedAlbums)))
	fmt.Printf("Execution Time:    %s\n", r.Duration.Round(time.Millisecond))
}
