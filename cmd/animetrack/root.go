package main

import (
	"fmt"
	"path/filepath"

	"github.com/amaumene/animetrack/internal/api"
	"github.com/amaumene/animetrack/internal/completion"
	"github.com/amaumene/animetrack/internal/config"
	"github.com/amaumene/animetrack/internal/controllers"
	"github.com/amaumene/animetrack/internal/models"
	"github.com/amaumene/animetrack/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "animetrack",
		Short:         "Track anime watch progress across watch partners",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newBackupCommand())

	return rootCmd
}

// app holds what every command needs: configuration, logger and the open store
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *models.Database
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Debug("Configuration loaded")

	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &app{cfg: cfg, logger: logger, db: db}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close database")
	}
}

func (a *app) controllers() api.Controllers {
	resolver := completion.NewResolver(a.cfg.PrimaryPartnerID)
	return api.Controllers{
		Completion:   controllers.NewCompletionController(a.db, resolver, a.logger),
		Title:        controllers.NewTitleController(a.db, a.logger),
		Catalog:      controllers.NewCatalogController(a.db, a.logger),
		Watchthrough: controllers.NewWatchthroughController(a.db, a.logger),
	}
}
