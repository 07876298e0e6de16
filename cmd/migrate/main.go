package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/joao-fontenele/shopflow/internal/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var path string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply or roll back the shop database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&path, "path", "", "migrations source URL (defaults to MIGRATIONS_PATH)")

	open := func() (*migrate.Migrate, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		source := cfg.MigrationsPath
		if path != "" {
			source = path
		}
		m, err := migrate.New(source, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("create migrate instance: %w", err)
		}
		return m, nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				m, err := open()
				if err != nil {
					return err
				}
				defer func() { _, _ = m.Close() }()

				err = m.Up()
				if errors.Is(err, migrate.ErrNoChange) {
					logger.Info("no pending migrations")
					return nil
				}
				if err != nil {
					return fmt.Errorf("migration up: %w", err)
				}
				logger.Info("migrations applied successfully")
				return nil
			},
		},
		newDownCmd(logger, open),
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				m, err := open()
				if err != nil {
					return err
				}
				defer func() { _, _ = m.Close() }()

				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					logger.Info("no migrations applied yet")
					return nil
				}
				if err != nil {
					return fmt.Errorf("get version: %w", err)
				}
				logger.Info("current migration version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
				return nil
			},
		},
	)

	return root
}

func newDownCmd(logger *slog.Logger, open func() (*migrate.Migrate, error)) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1, got %d", steps)
			}

			m, err := open()
			if err != nil {
				return err
			}
			defer func() { _, _ = m.Close() }()

			err = m.Steps(-steps)
			if errors.Is(err, migrate.ErrNoChange) {
				logger.Info("no migrations to rollback")
				return nil
			}
			if err != nil {
				return fmt.Errorf("migration down: %w", err)
			}
			logger.Info("migrations rolled back successfully", slog.Int("steps", steps))
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	return cmd
}
