package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"motodash/internal/database"
	"motodash/internal/database/migration"
)

var errNoDatabase = errors.New("database is not configured (DB_HOST, DB_USER, DB_NAME)")

func migrateCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the report export index schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, name := range migration.Steps() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			if !database.Enabled(cfg.Database) {
				return errNoDatabase
			}
			db, err := database.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			applied, err := migration.EnsureMigrated(cmd.Context(), db, log, cfg.Database.Host)
			if err != nil {
				return err
			}
			if applied {
				fmt.Fprintln(cmd.OutOrStdout(), "schema migrated")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print the migration steps without connecting")
	return cmd
}
