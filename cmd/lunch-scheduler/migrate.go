package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/lunch-rotation-api/pkg/database"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			db, err := database.NewPostgres(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
			logr.Info("schema applied")
			return nil
		},
	}
}
