// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command seed loads catalog data and provisions administrator accounts.
//
//	seed catalog --file data/seed/catalog.yaml
//	seed admin-user --email admin@scriptorium-divinum.com --password ...
//	seed migrate [--rollback 1]
//
// Every command reads the same environment as the API server. catalog and
// admin-user run the pending migrations first.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/taibuivan/scriptorium/internal/admin"
	"github.com/taibuivan/scriptorium/internal/platform/config"
	"github.com/taibuivan/scriptorium/internal/platform/constants"
	"github.com/taibuivan/scriptorium/internal/platform/migration"
	pgstore "github.com/taibuivan/scriptorium/internal/platform/postgres"
	"github.com/taibuivan/scriptorium/internal/platform/sec"
	"github.com/taibuivan/scriptorium/internal/users/auth"
	"github.com/taibuivan/scriptorium/internal/users/profile"
)

// seedMaxConns bounds the pool of a seed run; imports are sequential.
const seedMaxConns = 2

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With(slog.String("app", constants.AppName+"-seed"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(log).ExecuteContext(ctx); err != nil {
		log.Error("seed_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newRootCmd(log *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Load catalog data and administrator accounts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCatalogCmd(log), newAdminUserCmd(log), newMigrateCmd(log))
	return root
}

// catalogCmd upserts a YAML snapshot of authors and books.
func newCatalogCmd(log *slog.Logger) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Upsert authors and books from a YAML file",
		Long: `Upsert authors and books from a YAML file.

Records are matched by id, so running the command twice leaves the catalog
unchanged. Authors are written before books.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			snapshot, err := parseSnapshot(raw)
			if err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			return withPool(cmd.Context(), log, func(pool *pgxpool.Pool) error {
				importer := admin.NewImporter(
					admin.NewPostgresAuthorRepository(pool),
					admin.NewPostgresBookRepository(pool),
					nil,
					log,
				)
				report, err := importer.Import(cmd.Context(), snapshot)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d authors and %d books\n", report.Authors, report.Books)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "data/seed/catalog.yaml", "YAML snapshot to import")
	return cmd
}

// adminUserCmd creates or resets an account and grants it the admin role.
func newAdminUserCmd(log *slog.Logger) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "admin-user",
		Short: "Create or reset an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPool(cmd.Context(), log, func(pool *pgxpool.Pool) error {
				// Provisioning touches accounts only; no sessions are opened.
				authService := auth.NewService(auth.NewAccountRepository(pool), nil, nil, log)

				account, err := authService.ProvisionAccount(cmd.Context(), email, password)
				if err != nil {
					return err
				}

				stored, err := profile.NewPostgresRepository(pool).SetRole(cmd.Context(), account.ID, account.Email, sec.RoleAdmin)
				if err != nil {
					return err
				}

				log.Info("admin_user_provisioned", slog.String("user_id", stored.ID), slog.String("email", stored.Email))
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", stored.Email, stored.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// migrateCmd applies pending migrations, or reverts the newest ones.
func newMigrateCmd(log *slog.Logger) *cobra.Command {
	var rollback int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if rollback > 0 {
				return migration.Rollback(cfg.DatabaseURL, cfg.MigrationPath, rollback, log)
			}
			return migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log)
		},
	}

	cmd.Flags().IntVar(&rollback, "rollback", 0, "revert this many of the newest migrations instead")
	return cmd
}

// withPool loads the configuration, migrates and runs fn on a connection pool.
func withPool(ctx context.Context, log *slog.Logger, fn func(pool *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, seedMaxConns, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
		return err
	}
	return fn(pool)
}
