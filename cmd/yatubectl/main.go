package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yatube/internal/app"
	"yatube/internal/db"
)

var (
	cfg app.Config
	log *zap.Logger
)

var RootCmd = &cobra.Command{
	Use:           "yatubectl",
	Short:         "Administer a yatube database",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = app.LoadConfig(); err != nil {
			return err
		}
		if dsn, _ := cmd.Flags().GetString("database-url"); dsn != "" {
			cfg.DatabaseURL = dsn
		}
		log, err = app.NewLogger(cfg)
		return err
	},
}

func init() {
	RootCmd.PersistentFlags().String("database-url", "", "overrides DATABASE_URL")
}

// withStore opens a short-lived pool for one command.
func withStore(ctx context.Context, fn func(*db.Store) error) error {
	pool, err := db.Open(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(db.NewStore(pool))
}

func main() {
	err := RootCmd.Execute()
	if log != nil {
		_ = log.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
