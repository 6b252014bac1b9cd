package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/engtrack/internal/config"
	"github.com/noah-isme/engtrack/internal/database"
	"github.com/noah-isme/engtrack/internal/repository"
	"github.com/noah-isme/engtrack/internal/service"
)

func main() {
	if err := buildRoot().Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "users",
		Short:        "Manage the accounts allowed to sign in",
		SilenceUsage: true,
	}
	root.AddCommand(importCmd(), adminCmd("grant-admin", true), adminCmd("revoke-admin", false), hashCmd())
	return root
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import accounts from a legacy users JSON file",
		Long: `Reads a legacy users file ("usuarios" or "users" list), hashes plaintext
passwords and creates the accounts whose login does not exist yet.
Without an argument the configured users file is read.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			path := cfg.UsersFile
			if len(args) == 1 {
				path = args[0]
			}

			users, err := openUsers(cfg)
			if err != nil {
				return err
			}
			result, err := users.ImportLegacy(context.Background(), path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d user(s), skipped %d\n", result.Imported, result.Skipped)
			return nil
		},
	}
}

func adminCmd(use string, admin bool) *cobra.Command {
	short := "Grant the admin role to an account"
	if !admin {
		short = "Revoke the admin role from an account"
	}
	return &cobra.Command{
		Use:   use + " <login>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			users, err := openUsers(cfg)
			if err != nil {
				return err
			}
			if err := users.SetAdmin(context.Background(), args[0], admin); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
			return nil
		},
	}
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the stored hash for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := service.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func openUsers(cfg config.Config) (service.UserService, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return service.NewUserService(repository.NewUserRepository(db), logger), nil
}
