package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/dryanez/MrcarCotizacion/internal/config"
	"github.com/dryanez/MrcarCotizacion/internal/repo"
	"github.com/dryanez/MrcarCotizacion/internal/sysutil"
)

var rootCmd = &cobra.Command{
	Use:   "mrcar",
	Short: "mrcar resolves Chilean plates and prices used vehicles for resale.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		sysutil.SetLogLevel(os.Getenv("LOG_LEVEL"))
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	},
}

// ExecuteContext runs the CLI, printing the error and exiting non-zero when
// a command fails.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads and validates env configuration for a command run.
func loadConfig() (config.Config, error) {
	return config.Load()
}

// openStore opens the shared SQLite store and runs migrations.
func openStore(cfg config.Config) (*gorm.DB, error) {
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
