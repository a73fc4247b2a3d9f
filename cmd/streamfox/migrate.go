package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ManuelReschke/StreamFox/internal/pkg/database"
)

func newMigrateCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run SQL schema migrations (MySQL)",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "migrations", "Directory containing the migration files")

	open := func() (*migrate.Migrate, error) {
		cfg := database.LoadConfig()
		url, err := cfg.MigrateURL()
		if err != nil {
			return nil, err
		}
		log.Info().Str("db", fmt.Sprintf("%s@%s:%s/%s", cfg.User, cfg.Host, cfg.Port, cfg.Name)).Msg("connecting for migrations")
		m, err := migrate.New("file://"+dir, url)
		if err != nil {
			return nil, fmt.Errorf("initialize migrations: %w", err)
		}
		return m, nil
	}

	run := func(fn func(m *migrate.Migrate) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer func() {
				if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
					log.Warn().AnErr("source", sourceErr).AnErr("db", dbErr).Msg("failed to close migration resources")
				}
			}()
			return fn(m)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: run(func(m *migrate.Migrate) error {
			err := m.Up()
			if errors.Is(err, migrate.ErrNoChange) {
				log.Info().Msg("no change: database is up to date")
				return nil
			}
			if err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			log.Info().Msg("migrations applied")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: run(func(m *migrate.Migrate) error {
			if err := m.Steps(-1); err != nil {
				return fmt.Errorf("roll back last migration: %w", err)
			}
			log.Info().Msg("last migration rolled back")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "goto N",
		Short: "Migrate to version N",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return run(func(m *migrate.Migrate) error {
				err := m.Migrate(uint(version))
				if errors.Is(err, migrate.ErrNoChange) {
					log.Info().Uint64("version", version).Msg("no change: database already at version")
					return nil
				}
				if err != nil {
					return fmt.Errorf("migrate to version %d: %w", version, err)
				}
				log.Info().Uint64("version", version).Msg("migrated")
				return nil
			})(c, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		Args:  cobra.NoArgs,
		RunE: run(func(m *migrate.Migrate) error {
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("no migrations applied yet")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read migration version: %w", err)
			}
			suffix := ""
			if dirty {
				suffix = " (dirty)"
			}
			fmt.Printf("current version: %d%s\n", version, suffix)
			return nil
		}),
	})

	return cmd
}
