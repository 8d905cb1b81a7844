package main

import (
	"errors"

	"github.com/sdmtech/sdmcrm/internal/application/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCreateAdminCmd(a *app) *cobra.Command {
	var in services.SignUpInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote an existing one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Email == "" {
				return errors.New("--email is required")
			}
			ctx := cmd.Context()
			db, err := a.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			sm, err := services.NewServiceManager(db, a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer sm.Shutdown(ctx)

			userID, created, err := sm.Auth.CreateAdmin(ctx, in)
			if err != nil {
				return err
			}
			if created {
				a.logger.Info("👤 Admin account created", zap.String("user_id", userID), zap.String("email", in.Email))
			} else {
				a.logger.Info("👤 Existing account promoted to admin", zap.String("user_id", userID), zap.String("email", in.Email))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "admin email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "password for a new account")
	cmd.Flags().StringVar(&in.FullName, "name", "Administrator", "full name for a new account")
	return cmd
}
