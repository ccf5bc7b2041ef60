package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wattfinder/wattfinder/internal/alerting"
	"github.com/wattfinder/wattfinder/internal/api"
	"github.com/wattfinder/wattfinder/internal/config"
	"github.com/wattfinder/wattfinder/internal/cron"
	"github.com/wattfinder/wattfinder/internal/importer"
	"github.com/wattfinder/wattfinder/internal/migrate"
	"github.com/wattfinder/wattfinder/internal/storage"
	"github.com/wattfinder/wattfinder/pkg/sources"
	_ "github.com/wattfinder/wattfinder/pkg/sources/powertochoose"
)

var rootCmd = &cobra.Command{
	Use:   "wattfinder",
	Short: "Texas electricity plan comparison service",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromEnv()

		mux, err := api.NewMux(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		log.Printf("wattfinder listening on %s", cfg.ListenAddr)
		return http.ListenAndServe(cfg.ListenAddr, mux)
	},
}

var importSource string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Fetch plan listings and load them into storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromEnv()

		st, err := storage.Open(ctx, storage.Config{
			Driver:    cfg.StorageDriver,
			DSN:       cfg.StorageDSN,
			Providers: importer.ProviderSeed(),
		})
		if err != nil {
			return err
		}
		defer st.Close()

		im := importer.New(st, alerting.NewAlerter(alerting.DefaultAlertConfig()))

		if importSource != "" {
			src, ok := sources.Get(importSource)
			if !ok {
				return fmt.Errorf("unknown source %q (available: %v)", importSource, sources.List())
			}
			start := time.Now()
			count, err := im.RunSource(ctx, src)
			if err != nil {
				return err
			}
			log.Printf("imported %d plans from %s in %s", count, src.Key(), time.Since(start).Round(time.Millisecond))
			return nil
		}

		return im.RunBatch(ctx, uuid.New().String())
	},
}

var cronCmd = &cobra.Command{
	Use:   "cron",
	Short: "Run the scheduled import worker (requires the postgrespool driver)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cron.Run(cmd.Context(), config.FromEnv())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|status]",
	Short: "Manage database schema migrations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.FromEnv()

		switch args[0] {
		case "up":
			return migrate.Up(ctx, cfg.StorageDriver, cfg.StorageDSN)
		case "down":
			return migrate.Down(ctx, cfg.StorageDriver, cfg.StorageDSN)
		case "status":
			return migrate.Status(ctx, cfg.StorageDriver, cfg.StorageDSN)
		default:
			return fmt.Errorf("unknown migrate action %q", args[0])
		}
	},
}

func main() {
	importCmd.Flags().StringVar(&importSource, "source", "", "import a single source by key instead of the full batch")

	rootCmd.AddCommand(serveCmd, importCmd, cronCmd, migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
