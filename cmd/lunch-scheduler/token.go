package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/lunch-rotation-api/internal/models"
	"github.com/noah-isme/lunch-rotation-api/internal/repository"
	"github.com/noah-isme/lunch-rotation-api/internal/service"
	"github.com/noah-isme/lunch-rotation-api/pkg/database"
)

func tokenCommand() *cobra.Command {
	var (
		participantID string
		role          string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a participant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			db, err := database.NewPostgres(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			auth := service.NewAuthService(repository.NewParticipantRepository(db), logr, service.AuthConfig{
				AccessTokenSecret: cfg.JWT.Secret,
				AccessTokenExpiry: cfg.JWT.Expiration,
				Issuer:            cfg.JWT.Issuer,
			})
			ctx := cmd.Context()
			issued, err := auth.IssueToken(ctx, participantID, models.Role(role))
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(issued)
		},
	}
	cmd.Flags().StringVar(&participantID, "participant", "", "participant id")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "admin, secretary or member")
	_ = cmd.MarkFlagRequired("participant")
	return cmd
}
