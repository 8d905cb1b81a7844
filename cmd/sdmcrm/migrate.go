package main

import (
	"github.com/sdmtech/sdmcrm/internal/bootstrap"
	"github.com/sdmtech/sdmcrm/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			a.logger.Info("📐 Schema is up to date")

			if !seed {
				return nil
			}
			data, err := bootstrap.LoadSeedData()
			if err != nil {
				return err
			}
			return bootstrap.NewSeeder(persistence.NewContentRepository(db), persistence.NewServiceOfferingRepository(db), a.logger).Seed(ctx, data)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", true, "insert default site content when missing")
	return cmd
}
