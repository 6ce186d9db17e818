package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"catalog-sync/core/config"
	"catalog-sync/core/database"
	"catalog-sync/core/logger"
	"catalog-sync/feature/library"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// trackCmd represents the track command
var trackCmd = &cobra.Command{
	Use:   "track [server] [id]",
	Short: "Print a stored track as JSON",
	Long:  `Looks up one track of a server by its remote id and prints it with its album, artist and genres.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
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

		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Database connection failed", zap.Error(err))
		}

		svc := library.NewService(db, nil, cfg.Storage, cfg.Sync, nil, logg)
		track, err := svc.GetTrack(cmd.Context(), args[0], args[1])
		if err != nil {
			logg.Fatal("Track lookup failed", zap.String("server", args[0]), zap.String("id", args[1]), zap.Error(err))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(track); err != nil {
			logg.Fatal("Failed to encode track", zap.Error(err))
		}
	},
}

func init() {
	RootCmd.AddCommand(trackCmd)
}
