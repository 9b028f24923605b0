package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/myquiz/backend/internal/config"
	"github.com/myquiz/backend/internal/database"
	"github.com/myquiz/backend/internal/migrations"
)

func newMigrateCmd(stdout io.Writer) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				path = cfg.SQLitePath
			}

			db, err := database.Open(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("connecting to sqlite: %w", err)
			}
			defer db.Close()

			if err := migrations.Run(db); err != nil {
				return err
			}
			version, err := migrations.Version(db)
			if err != nil {
				return fmt.Errorf("reading schema version: %w", err)
			}
			fmt.Fprintf(stdout, "%s migrated to version %d\n", path, version)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "SQLite database path (default SQLITE_PATH)")
	return cmd
}
