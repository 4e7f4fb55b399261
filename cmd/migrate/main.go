package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/pkg/config"
	"github.com/noah-isme/course-registration-api/pkg/database"
	"github.com/noah-isme/course-registration-api/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the course registration schema",
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *migrate.Migrate, logr *zap.Logger) error {
				if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("migrate up: %w", err)
				}
				return reportVersion(cmd, m, logr)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return withMigrator(func(m *migrate.Migrate, logr *zap.Logger) error {
				if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("migrate down: %w", err)
				}
				return reportVersion(cmd, m, logr)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	root.AddCommand(down)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *migrate.Migrate, logr *zap.Logger) error {
				return reportVersion(cmd, m, logr)
			})
		},
	})

	return root
}

func withMigrator(fn func(*migrate.Migrate, *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Error("database unavailable", zap.Error(err))
		return err
	}
	defer db.Close()

	m, err := database.NewMigrator(db)
	if err != nil {
		logr.Error("migrator unavailable", zap.Error(err))
		return err
	}
	return fn(m, logr.Named("migrate"))
}

func reportVersion(cmd *cobra.Command, m *migrate.Migrate, logr *zap.Logger) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logr.Info("schema empty")
		cmd.Println("version: none")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logr.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	cmd.Printf("version: %d dirty: %t\n", version, dirty)
	return nil
}
