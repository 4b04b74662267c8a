package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pgutil "github.com/med2305/mlops/pkg/postgres"
)

func migrateCmd() *cobra.Command {
	var (
		dsn    string
		source string
	)
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Manage the audit log and bundle store schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("--database-url is required")
			}
			m, err := pgutil.NewMigrator(dsn, source)
			if err != nil {
				return err
			}
			defer m.Close()

			switch args[0] {
			case "up":
				err = m.Up()
			case "down":
				err = m.Down()
			}
			if err != nil {
				return err
			}

			version, dirty, ok, err := m.Version()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case !ok:
				fmt.Fprintln(out, "schema version: none")
			case dirty:
				fmt.Fprintf(out, "schema version: %d (dirty)\n", version)
			default:
				fmt.Fprintf(out, "schema version: %d\n", version)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "database-url", "", "Postgres connection URL")
	cmd.Flags().StringVar(&source, "source", "file://migrations", "golang-migrate source URL")

	return cmd
}
