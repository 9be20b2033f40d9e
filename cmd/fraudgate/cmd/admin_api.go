package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/finelli/fraudgate/internal/audit"
	"github.com/finelli/fraudgate/internal/core/api"
	"github.com/finelli/fraudgate/internal/core/config"
	"github.com/finelli/fraudgate/internal/core/db"
	"github.com/finelli/fraudgate/internal/core/server"
	"github.com/finelli/fraudgate/internal/metrics"
	"github.com/finelli/fraudgate/internal/store"
	"github.com/finelli/fraudgate/internal/version"
)

const Version = "0.1.0"

var adminAPICmd = &cobra.Command{
	Use:   "admin-api",
	Short: "Start HTTP admin API service",
	RunE:  runAdminAPI,
}

func init() {
	rootCmd.AddCommand(adminAPICmd)
	adminAPICmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	adminAPICmd.Flags().Int("port", 8080, "HTTP server port")
}

func runAdminAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Port = port
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}

	log := newLogger()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := db.MigrateUp(database); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	auditLog := audit.NewLog(queries)
	ruleStore := store.New(database, queries)
	manager := version.NewManager(ruleStore, auditLog)
	promMetrics := metrics.New()

	srv := server.New(cfg, log)
	srv.MountMetrics("/metrics", promMetrics.Handler())
	api.RegisterRoutes(srv.App(), api.NewHandler(manager, ruleStore, auditLog, promMetrics, log, cfg.ListLimit))

	log.Info("starting fraudgate admin api", "version", Version)
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Listen()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Info("shutting down gracefully")
		return srv.Shutdown()
	}
}
