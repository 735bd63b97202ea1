package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/election.report/internal/db"
)

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	var assumeYes bool
	cmd := &cobra.Command{
		Use:       "migrate {up|down|status|version|force} [version]",
		Short:     "Inspect or change the database schema version",
		ValidArgs: db.MigrateActions,
		Args:      cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			// OpenDB does not migrate, so status and down see the real state.
			database, err := db.OpenDB(cfg.GetDBPath())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			fsys, err := db.MigrationsFS()
			if err != nil {
				return fmt.Errorf("failed to load migrations: %w", err)
			}
			return db.RunMigrateAction(database, fsys, args[0], args[1:], db.MigrateIO{
				In:        cmd.InOrStdin(),
				Out:       cmd.OutOrStdout(),
				AssumeYes: assumeYes,
			})
		},
	}
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not prompt before forcing a version")
	return cmd
}
