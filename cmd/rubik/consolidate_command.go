package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	service "github.com/chow-chow/rubik/internal/app"
	"github.com/chow-chow/rubik/internal/config"
)

func newConsolidateCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Rebuild the roster from raw ratings observations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withService(cmd, func(svc *service.Service, _ *config.Config) error {
				report, err := svc.Consolidate(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, report)
				}
				fmt.Fprintln(cmd.OutOrStdout(), summaryTable([][2]string{
					{"Observations", strconv.Itoa(report.Observations)},
					{"Rejected", strconv.Itoa(report.Rejected)},
					{"Discarded", strconv.Itoa(report.Discarded)},
					{"Merged", strconv.Itoa(report.Merged)},
					{"Roster size", strconv.Itoa(report.RosterSize)},
				}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
