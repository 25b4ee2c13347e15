package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/playmatatu/slamdunk/internal/config"
	"github.com/playmatatu/slamdunk/internal/migrations"
)

var (
	flagDatabaseURL   string
	flagMigrationsDir string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Brings the history database up to date. Defaults to DATABASE_URL;
sqlite:// URLs get the embedded schema, postgres URLs run the migration files.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&flagDatabaseURL, "database", "", "Database URL (default: $DATABASE_URL)")
	migrateCmd.Flags().StringVar(&flagMigrationsDir, "dir", migrations.DefaultDir, "Directory holding the postgres migration files")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	url := flagDatabaseURL
	if url == "" {
		url = config.Load().DatabaseURL
	}
	if err := migrations.RunMigrations(url, flagMigrationsDir); err != nil {
		return err
	}
	log.Info("database is up to date")
	return nil
}
