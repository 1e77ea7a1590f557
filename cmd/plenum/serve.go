package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coopvote/plenum/internal/archive"
	"github.com/coopvote/plenum/internal/config"
	"github.com/coopvote/plenum/internal/consumer"
	"github.com/coopvote/plenum/internal/eligibility"
	"github.com/coopvote/plenum/internal/events"
	"github.com/coopvote/plenum/internal/notify"
	"github.com/coopvote/plenum/internal/server"
	"github.com/coopvote/plenum/internal/store/postgres"
	"github.com/coopvote/plenum/internal/sweeper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the plenum voting server",
	// Override PersistentPreRunE so we don't create an HTTP client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Connect to Postgres.
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		// Connect the event channel.
		bus, err := events.Connect(cfg.NATSURL)
		if err != nil {
			store.Close()
			return err
		}
		logger.Info("event channel connected", "nats_url", cfg.NATSURL, "shards", cfg.SessionShards)

		// Load callback configuration.
		var callbacks *notify.Config
		if cfg.CallbackConfig != "" {
			callbacks, err = notify.LoadConfig(cfg.CallbackConfig)
			if err != nil {
				bus.Close()
				store.Close()
				return err
			}
			logger.Info("callbacks configured", "path", cfg.CallbackConfig)
		}
		dispatcher := notify.NewDispatcher(callbacks, logger)

		// Pick the eligibility gateway.
		var gateway eligibility.Gateway
		if cfg.EligibilityURL != "" {
			gateway = eligibility.NewHTTPGateway(cfg.EligibilityURL)
			logger.Info("eligibility gateway enabled", "url", cfg.EligibilityURL)
		} else {
			gateway = eligibility.NewSimulatedGateway(time.Now().UnixNano())
			logger.Info("eligibility gateway simulated (PLENUM_ELIGIBILITY_URL not set)")
		}

		// Start the event consumer.
		cons := consumer.New(store, bus, dispatcher, cfg.SessionShards, logger)
		if err := cons.Start(); err != nil {
			bus.Close()
			store.Close()
			return err
		}

		// Start the expiry sweeper.
		sw := sweeper.New(store, bus, cfg.SessionShards, cfg.SweepInterval, logger)
		sw.Start()

		// Start the archive scheduler if a destination is configured.
		var archiver *archive.Scheduler
		if cfg.ArchiveS3Bucket != "" && cfg.ArchiveInterval > 0 {
			dest, err := archive.NewS3Destination(
				context.Background(),
				cfg.ArchiveS3Bucket,
				cfg.ArchiveS3Key,
				cfg.ArchiveS3Region,
				cfg.ArchiveS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 archive destination", "err", err)
			} else {
				archiver = archive.NewScheduler(store, []archive.Destination{dest}, cfg.ArchiveInterval, logger)
				archiver.Start()
				logger.Info("archive scheduler started",
					"bucket", cfg.ArchiveS3Bucket, "key", cfg.ArchiveS3Key, "interval", cfg.ArchiveInterval)
			}
		}

		// Start the HTTP server.
		votingServer := server.NewVotingServer(store, bus, gateway, cfg.SessionShards, logger)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: votingServer.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		logger.Info("plenum server started", "http_addr", cfg.HTTPAddr)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown. New intake stops first, then the background
		// workers, then the channel and store.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		sw.Stop()

		if archiver != nil {
			archiver.Stop()
			logger.Info("archive scheduler stopped")
		}

		cons.Stop()
		logger.Info("event consumer stopped")

		if err := bus.Close(); err != nil {
			logger.Error("error closing event channel", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
