package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phleb-loss-tracker/internal/database"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
	}

	withRunner := func(fn func(cmd *cobra.Command, runner *database.MigrationRunner) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			configManager, logger, err := loadConfig()
			if err != nil {
				return err
			}
			runner, err := database.NewMigrationRunner(configManager.GetDatabaseURL(), logger)
			if err != nil {
				return err
			}
			defer runner.Close()
			return fn(cmd, runner)
		}
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withRunner(func(cmd *cobra.Command, runner *database.MigrationRunner) error {
			return runner.Up()
		}),
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: withRunner(func(cmd *cobra.Command, runner *database.MigrationRunner) error {
			return runner.Down()
		}),
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: withRunner(func(cmd *cobra.Command, runner *database.MigrationRunner) error {
			version, dirty, err := runner.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
			return nil
		}),
	}

	cmd.AddCommand(upCmd, downCmd, versionCmd)
	return cmd
}
