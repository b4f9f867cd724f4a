package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/sergen116/food-ordering-system/config"
)

const versionTimeFormat = "20060102150405"

func createMigrationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-create [service] [name]",
		Short: "create an empty up/down SQL migration pair for a service",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, name := args[0], args[1]

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			migrationDir, _, err := cfg.MigrationAndDatabase(service)
			if err != nil {
				return err
			}

			version := time.Now().Format(versionTimeFormat)
			up := fmt.Sprintf("%s/%s_%s.up.sql", migrationDir, version, name)
			down := fmt.Sprintf("%s/%s_%s.down.sql", migrationDir, version, name)

			if err := os.WriteFile(up, []byte{}, 0644); err != nil {
				return err
			}
			if err := os.WriteFile(down, []byte{}, 0644); err != nil {
				return err
			}

			fmt.Println("Created SQL up script:", up)
			fmt.Println("Created SQL down script:", down)
			return nil
		},
	}
}

func migrateUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-up [service]",
		Short: "migrate a service's database all the way up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := args[0]

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			migrationDir, databaseDSN, err := cfg.MigrationAndDatabase(service)
			if err != nil {
				return err
			}

			m, err := migrate.New(
				fmt.Sprintf("file://%s", migrationDir),
				fmt.Sprintf("mysql://%s", databaseDSN),
			)
			if err != nil {
				return err
			}

			if err := m.Up(); err != nil {
				if err == migrate.ErrNoChange {
					fmt.Println("No change in migration")
					return nil
				}
				return err
			}
			fmt.Println("Migrated up")
			return nil
		},
	}
}
