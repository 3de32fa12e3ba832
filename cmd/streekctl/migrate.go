package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/limbo/streek/internal/repository"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := migrationsDir
		if dir == "" {
			dir = cfg.GetStringOr("MIGRATIONS_DIR", "./migrations")
		}
		if err := repository.Migrate(dbConfig(), dir); err != nil {
			return errors.New("migrate: " + err.Error())
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied from", dir)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "", "migrations directory (default: $MIGRATIONS_DIR or ./migrations)")
}
