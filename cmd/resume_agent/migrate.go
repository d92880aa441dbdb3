package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/echiveai-alt/funnytime2-sub001/internal/db"
)

var migrateDBURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  `Apply the embedded goose migrations (candidate data, analysis cache and usage tables) to PostgreSQL.`,
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDBURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL)")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	databaseURL := migrateDBURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("database URL is required (use --db-url or set DATABASE_URL)")
	}

	database, err := db.Connect(cmd.Context(), databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
	return nil
}
