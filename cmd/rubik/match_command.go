package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/chow-chow/rubik/internal/app"
	"github.com/chow-chow/rubik/internal/config"
	"github.com/chow-chow/rubik/internal/domain/types"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "match NAME...",
		Short: "Resolve raw instructor names against the roster",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *service.Service, _ *config.Config) error {
				if err := svc.Start(cmd.Context()); err != nil {
					return err
				}
				out := make([]types.Resolution, len(args))
				for i, name := range args {
					out[i] = svc.Match(cmd.Context(), name)
				}
				if asJSON {
					return writeJSON(cmd, out)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderResolutions(out))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print resolutions as JSON")
	return cmd
}

func renderResolutions(out []types.Resolution) string {
	rows := make([][]string, len(out))
	for i, r := range out {
		rating := ""
		if !r.ID.IsZero() {
			rating = strconv.FormatFloat(r.Rating, 'f', 2, 64)
		}
		rows[i] = []string{r.Name, r.Query, r.Kind, r.Strategy, r.ID.String(), r.FullName, rating, strings.Join(r.Candidates, " | ")}
	}
	return renderTable(
		[]string{"Name", "Query", "Result", "Strategy", "ID", "Full name", "Rating", "Candidates"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
	)
}
