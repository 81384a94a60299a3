package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	repository "github.com/chow-chow/rubik/internal/adapters/repository"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Copy the JSON data directory into the SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.loadConfig(cmd)
			if err != nil {
				return err
			}

			src := repository.NewJSONStore(
				repository.WithRosterPath(cfg.RosterPath()),
				repository.WithObservationsPath(cfg.ObservationsPath()),
				repository.WithGroupsDir(cfg.GroupsPath()),
			)
			defer src.Close()

			dst, err := repository.OpenSQLite(cmd.Context(), cfg.DatabasePath())
			if err != nil {
				return err
			}
			defer dst.Close()

			sum, err := repository.Copy(cmd.Context(), dst, src)
			if err != nil {
				return fmt.Errorf("import into %s: %w", dst.Path(), err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), summaryTable([][2]string{
				{"Database", dst.Path()},
				{"Roster records", strconv.Itoa(sum.Roster)},
				{"Observations", strconv.Itoa(sum.Observations)},
				{"Reference groups", strconv.Itoa(sum.Groups)},
			}))
			return nil
		},
	}
}
