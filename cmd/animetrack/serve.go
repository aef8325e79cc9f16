package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/animetrack/internal/api"
	"github.com/amaumene/animetrack/internal/scheduler"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and scheduled backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	// 1. Load configuration, logger and database
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.logger
	logger.WithField("env", a.cfg.DeployEnv).Info("Starting animetrack")
	logger.WithField("path", a.cfg.DatabaseFile).Info("Database initialized")

	// 2. Initialize controllers
	ctrls := a.controllers()
	logger.WithField("primary_partner_id", a.cfg.PrimaryPartnerID).Info("Controllers initialized")

	// 3. Initialize scheduler
	sched := scheduler.NewScheduler(a.db, a.cfg.BackupSchedule, a.cfg.BackupDir, a.cfg.BackupRetain, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 4. Initialize HTTP server
	server := api.NewServer(a.cfg, a.db, ctrls, logger)

	// Start server in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 5. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("animetrack is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("animetrack stopped")
	return nil
}
