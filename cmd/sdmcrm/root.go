package main

import (
	"context"
	"fmt"

	"github.com/sdmtech/sdmcrm/internal/config"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/database"
	"github.com/sdmtech/sdmcrm/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every subcommand needs after flags are parsed.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "sdmcrm",
		Short:         "SDM website and CRM backend",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML/JSON/TOML config file")

	root.AddCommand(newServeCmd(a), newMigrateCmd(a), newCreateAdminCmd(a))
	return root
}

func (a *app) init() error {
	envFile := config.LoadDotEnv()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	if envFile != "" {
		logger.Debug("loaded environment file", zap.String("path", envFile))
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// openDatabase connects and brings the schema up to date.
func (a *app) openDatabase(ctx context.Context) (*database.Connection, error) {
	db, err := database.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, err
	}
	a.logger.Info("✅ Database connection established",
		zap.String("driver", a.cfg.Database.Driver),
		zap.String("host", a.cfg.Database.Host))

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}
