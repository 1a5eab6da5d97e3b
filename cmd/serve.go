package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"fairdraw/internal/archive"
	"fairdraw/internal/config"
	"fairdraw/internal/handlers"
	"fairdraw/internal/metrics"
	"fairdraw/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath, envFile)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	serveCmd.Flags().StringVar(&envFile, "env-file", ".env", "optional .env file with FAIRDRAW_* overrides")
}

func serve(ctx context.Context, cfg config.Config) error {
	// 1. Initialize logging; without a log file, info goes to stdout.
	logOut, verbose := io.Discard, cfg.Verbose || cfg.LogFile == ""
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	defer logger.Init("fairdraw", verbose, false, logOut).Close()

	// 2. Open the archive of drawn rounds
	store, err := archive.Open(cfg.Archive.Driver, cfg.Archive.Path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	// 3. Initialize the Round Service
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	roundService := services.NewRoundService(services.Options{
		NumWinners: cfg.NumWinners,
		Archive:    store,
		Metrics:    metrics.New(reg),
	})
	if ctx == nil {
		ctx = context.Background()
	}
	if err := roundService.Restore(ctx); err != nil {
		return err
	}

	// 4. Initialize the HTTP Handler and router
	httpHandler := handlers.NewHTTPHandler(roundService, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r := gin.Default()
	httpHandler.RegisterRoutes(r)

	// 5. Run the server
	logger.Infof("Server starting on %s, %d winners per round, archive %q", cfg.ListenAddr, cfg.NumWinners, cfg.Archive.Driver)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Errorf("Failed to run server: %v", err)
		return err
	}
	return nil
}
