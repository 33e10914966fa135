// Package main provides the Lead Scout server binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leadscout/lead-scout/internal/config"
	"github.com/leadscout/lead-scout/internal/pkg/logger"
	"github.com/leadscout/lead-scout/internal/server"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lead-scout-server",
		Short: "Lead Scout Server - business lead discovery API",
		Long: `Lead Scout Server finds businesses via places search, stores them with
lead scores, and serves them over a JSON API.

Examples:
  lead-scout-server                       # Start with defaults
  lead-scout-server --port 9000           # Custom HTTP port
  lead-scout-server --config config.yaml  # Load a config file`,
		RunE:         runServer,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringP("config", "c", "", "config file path")
	rootCmd.Flags().BoolP("verbose", "v", false, "verbose logging")
	rootCmd.Flags().String("host", "0.0.0.0", "server host")
	rootCmd.Flags().Int("port", 8080, "HTTP server port")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lead-scout-server %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Flags override config
	if cmd.Flags().Changed("host") {
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("starting lead-scout-server",
		"version", version,
		"addr", cfg.Address(),
		"db_driver", cfg.Database.Driver,
	)

	for _, problem := range cfg.Problems() {
		log.Warn("configuration problem", "detail", problem)
	}

	srv, err := server.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-gCtx.Done()
		return srv.Stop(context.Background())
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
