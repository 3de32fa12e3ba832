package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/limbo/streek/internal/repository"
	"github.com/limbo/streek/internal/service"
	"github.com/limbo/streek/pkg/config"
	"github.com/limbo/streek/pkg/logger"
)

var (
	// envFile is set by the --env flag.
	envFile string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "streekctl",
	Short: "streekctl administers the Streek backend",
	Long: `streekctl applies database migrations, runs the daily streak sweep
for chosen users and mints development tokens.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file (default: $STREEK_ENV_FILE or ./configs/.env)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(tokenCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := os.Setenv("STREEK_ENV_FILE", envFile); err != nil {
			return errors.New("setting env file: " + err.Error())
		}
	}
	cfg = config.New()
	_, err := logger.Setup(logger.Config{
		Level: cfg.GetStringOr("LOG_LEVEL", "warn"),
		File:  cfg.GetString("LOG_FILE"),
	})
	if err != nil {
		return errors.New("setting up logger: " + err.Error())
	}
	service.InitValidator()
	return nil
}

func dbConfig() *repository.PGCfg {
	return &repository.PGCfg{
		Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
		Username: cfg.GetString("POSTGRES_USER"),
		Password: cfg.GetString("POSTGRES_PASSWORD"),
		DB:       cfg.GetString("POSTGRES_DB"),
	}
}
