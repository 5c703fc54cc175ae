package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shenikar/civic_incident_tracker/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// MigrateOptions - флаги команды migrate down
type MigrateOptions struct {
	Steps int
}

// NewMigrateCommand создает команду migrate с подкомандами up и down
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rootOpts.load()
			if err != nil {
				return err
			}
			return runMigrations(cfg, log)
		},
	})

	opts := &MigrateOptions{}
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Steps < 1 {
				return fmt.Errorf("--steps must be positive, got %d", opts.Steps)
			}
			cfg, log, err := rootOpts.load()
			if err != nil {
				return err
			}
			return rollbackMigrations(cfg, log, opts.Steps)
		},
	}
	down.Flags().IntVarP(&opts.Steps, "steps", "n", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}

// migrationURL переводит postgres URL на драйвер pgx5 для golang-migrate
func migrationURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}

func newMigrate(cfg *config.Config) (*migrate.Migrate, error) {
	m, err := migrate.New(cfg.MigrationsPath, migrationURL(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, nil
}

func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	m, err := newMigrate(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func rollbackMigrations(cfg *config.Config, log *logrus.Logger, steps int) error {
	log.WithField("steps", steps).Info("Rolling back database migrations...")

	m, err := newMigrate(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	log.Info("Database migrations rolled back")
	return nil
}
