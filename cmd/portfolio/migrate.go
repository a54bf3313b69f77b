package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kbukum/portfolio/config"
	"github.com/kbukum/portfolio/database"
	"github.com/kbukum/portfolio/database/migration"
	"github.com/kbukum/portfolio/logger"
	"github.com/kbukum/portfolio/portfolio"
)

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), flags, func(m *migration.Migrator) error {
					return m.Up()
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), flags, func(m *migration.Migrator) error {
					return m.Down()
				})
			},
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations, or roll back when N is negative",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("steps must be a non-zero integer, got %q", args[0])
				}
				return withMigrator(cmd.Context(), flags, func(m *migration.Migrator) error {
					return m.Steps(n)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(cmd.Context(), flags, func(m *migration.Migrator) error {
					v, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", v, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

// withMigrator opens the database from config and runs fn. Only the
// service and database sections are validated, so no admin credentials
// are needed.
func withMigrator(ctx context.Context, flags *rootFlags, fn func(*migration.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Read(flags.loaderOptions()...)
	if err != nil {
		return err
	}
	if err := errors.Join(cfg.ServiceConfig.Validate(), cfg.Database.Validate()); err != nil {
		return err
	}
	log := logger.Init(cfg.Logging, cfg.Name)

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(portfolio.NewMigrator(db, log))
}
