package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/apartments/internal/config"
	"github.com/nzoschke/apartments/internal/db"
	"github.com/nzoschke/apartments/internal/model"
	"github.com/nzoschke/apartments/internal/repository"
	"github.com/nzoschke/apartments/internal/service"
	"github.com/nzoschke/apartments/internal/service/social"
	"github.com/spf13/cobra"
)

func AdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	cmd.AddCommand(adminCreateCmd())
	return cmd
}

func adminCreateCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a verified admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, database *sqlx.DB) error {
				err := db.RunMigrations(database.DB, cfg.DBDriver)
				if err != nil {
					return err
				}

				auth := service.NewAuthService(
					repository.NewUserRepository(database),
					service.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry, nil),
					service.NewEmailService(cfg.ResendAPIKey, cfg.EmailFrom, cfg.AppURL, cfg.AppName, cfg.IsDevelopment()),
					social.Providers{},
					cfg.BcryptCost,
				)

				reg, err := auth.Register(cmd.Context(), service.RegisterParams{
					Email:    email,
					Password: password,
					Role:     model.RoleAdmin,
					Verified: true,
				})
				if err != nil {
					return err
				}

				fmt.Println("==> Created admin", reg.User.Email, reg.User.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
