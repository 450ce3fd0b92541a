package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/shirin_shop/internal/app"
	"github.com/Skotchmaster/shirin_shop/internal/config"
	"github.com/Skotchmaster/shirin_shop/pkg/logging"
)

// boot loads the environment and opens a migrated app.
func boot(cmd *cobra.Command) (*app.App, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	config.LoadDotEnv(envFile)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, logging.New(cfg.LogLevel).With("service", "shopctl"))
	if err != nil {
		return nil, err
	}
	if err := a.Migrate(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		a, err := boot(cmd)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, a.Close()) }()
		return fn(cmd.Context(), cmd, a)
	}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: withApp(func(_ context.Context, cmd *cobra.Command, _ *app.App) error {
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	}),
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin user or promote an existing one",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		u, err := a.Auth.CreateAdmin(ctx, username, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %q ready (id %d)\n", u.Username, u.ID)
		return nil
	}),
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Push every product into the search index",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App) error {
		n, err := a.Catalog.Reindex(ctx)
		if err != nil {
			return fmt.Errorf("reindex stopped after %d products: %w", n, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d products\n", n)
		return nil
	}),
}

func init() {
	createAdminCmd.Flags().String("username", "admin", "admin username")
	createAdminCmd.Flags().String("password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("password")
}
