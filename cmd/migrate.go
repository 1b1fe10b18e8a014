package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-support-agent/internal/application"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the ticket workbook and database schema",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := application.Migrate(cmd.Context(), cfg); err != nil {
		return err
	}
	log.Info().
		Str("ticket_store", cfg.Store.Tickets).
		Str("workbook", cfg.Store.Workbook).
		Str("db", cfg.Store.DBPath).
		Msg("migrate: ok")
	return nil
}
