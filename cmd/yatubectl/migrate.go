package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yatube/internal/db"
)

func init() {
	RootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd, migrateForceCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or inspect schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return db.Migrate(cfg.DatabaseURL, cfg.MigrationsDir, log)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return db.Rollback(cfg.DatabaseURL, cfg.MigrationsDir)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, dirty, err := db.Version(cfg.DatabaseURL, cfg.MigrationsDir)
		if err != nil {
			return err
		}
		suffix := ""
		if dirty {
			suffix = " (dirty)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d%s\n", v, suffix)
		return nil
	},
}

var migrateForceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Mark a version as applied and clear the dirty flag",
	Long: `Mark a version as applied and clear the dirty flag without running SQL.
Use it after repairing a migration that failed part way. To mark no
migration applied, pass -1 after "--": yatubectl migrate force -- -1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < -1 {
			return fmt.Errorf("invalid version %q", args[0])
		}
		if err := db.Force(cfg.DatabaseURL, cfg.MigrationsDir, v); err != nil {
			return err
		}
		log.Warn("migration version forced", zap.Int("version", v))
		fmt.Fprintf(cmd.OutOrStdout(), "forced version %d\n", v)
		return nil
	},
}
