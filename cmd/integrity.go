package cmd

import (
	"context"
	"fmt"
	"os"

	"catalog-sync/core/config"
	"catalog-sync/core/database"
	"catalog-sync/core/logger"
	"catalog-sync/core/storage"
	"catalog-sync/feature/integrity"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on storage and the catalog database",
	Long:  `Checks the snapshot bucket layout, the stored snapshots and the library schema.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			cmd.Help()
			return
		}
		runIntegrityChecks(cmd.Context(), true, true, true)
	},
}

// structureCmd represents the integrity structure command
var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Check and fix the bucket folder structure",
	Run: func(cmd *cobra.Command, args []string) {
		runIntegrityChecks(cmd.Context(), true, false, false)
	},
}

// snapshotsCmd represents the integrity snapshots command
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Check the stored library snapshots",
	Run: func(cmd *cobra.Command, args []string) {
		runIntegrityChecks(cmd.Context(), false, true, false)
	},
}

// schemaCmd represents the integrity schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the library tables against their models",
	Run: func(cmd *cobra.Command, args []string) {
		runIntegrityChecks(cmd.Context(), false, false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(structureCmd, snapshotsCmd, schemaCmd)

	structureCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the bucket and missing folders")
}

func runIntegrityChecks(ctx context.Context, runStructure, runSnapshots, runSchema bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	var store storage.Client
	if runStructure || runSnapshots {
		store, err = storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}
	}

	var db *gorm.DB
	if runSchema {
		db, err = database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Database connection failed", zap.Error(err))
		}
	}

	svc := integrity.NewService(store, cfg.Storage, db, logg)

	if runStructure {
		logg.Info("Checking folder structure...", zap.String("bucket", cfg.Storage.Bucket))
		report, err := svc.CheckStructure(ctx)
		if err != nil {
			logg.Fatal("Structure check failed", zap.Error(err))
		}

		switch {
		case report.OK():
			logg.Info("Structure is intact.")
		case fixFlag:
			logg.Warn("Missing folders detected", zap.Bool("bucket_exists", report.BucketExists), zap.Strings("missing", report.Missing))
			logg.Info("Fixing structure...")
			if err := svc.FixStructure(ctx, report); err != nil {
				logg.Fatal("Failed to fix structure", zap.Error(err))
			}
			logg.Info("Structure fixed successfully.")
		default:
			logg.Warn("Missing folders detected", zap.Bool("bucket_exists", report.BucketExists), zap.Strings("missing", report.Missing))
			logg.Info("Run 'integrity structure --fix' to create them.")
		}
	}

	if runSnapshots {
		logg.Info("Checking snapshots...")
		report, err := svc.CheckSnapshots(ctx)
		if err != nil {
			logg.Error("Snapshot check failed", zap.Error(err))
		} else if report.Count == 0 {
			logg.Warn("No snapshots found", zap.String("prefix", report.Prefix))
		} else {
			logg.Info("Snapshots found",
				zap.Int("count", report.Count),
				zap.String("latest", report.Latest),
				zap.String("size", humanize.Bytes(uint64(report.LatestSize))),
				zap.String("age", humanize.Time(*report.LatestAt)),
			)
			if len(report.EmptyObjects) > 0 {
				logg.Warn("Empty snapshot objects", zap.Strings("objects", report.EmptyObjects))
			}
		}
	}

	if runSchema {
		logg.Info("Checking library schema...", zap.String("driver", cfg.Database.Driver))
		report, err := svc.CheckSchema()
		if err != nil {
			logg.Error("Schema check failed", zap.Error(err))
			return
		}
		if report.Matched {
			logg.Info("Library schema matches its models.")
			return
		}

		logg.Warn("Library schema mismatches found")
		for table, tbl := range report.Tables {
			if tbl.Status == "ok" {
				continue
			}
			if tbl.Missing {
				logg.Warn("Missing Table", zap.String("table", table))
				continue
			}
			if len(tbl.MissingColumns) > 0 {
				logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tbl.MissingColumns))
			}
			if len(tbl.TypeMismatches) > 0 {
				logg.Warn("Type Mismatches", zap.String("table", table), zap.Strings("mismatches", tbl.TypeMismatches))
			}
		}
		for _, e := range report.Errors {
			logg.Error("Inspection Error", zap.String("error", e))
		}
	}
}
