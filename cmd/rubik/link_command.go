package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/chow-chow/rubik/internal/app"
	"github.com/chow-chow/rubik/internal/config"
	"github.com/chow-chow/rubik/internal/domain/types"
)

func newLinkCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link every reference group to the instructor roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withService(cmd, func(svc *service.Service, _ *config.Config) error {
				report, err := svc.Link(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, report)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderReport(report))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func renderReport(r types.Report) string {
	rate := "n/a"
	if v, ok := r.MatchRate(); ok {
		rate = strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
	}
	pairs := [][2]string{
		{"Pass", r.PassID},
		{"Roster size", strconv.Itoa(r.RosterSize)},
		{"Roster skipped", strconv.Itoa(r.RosterSkipped)},
		{"Groups scanned", strconv.Itoa(r.GroupsScanned)},
		{"Groups skipped", strconv.Itoa(r.GroupsSkipped)},
		{"Groups written", strconv.Itoa(r.GroupsWritten)},
		{"Groups failed", strconv.Itoa(r.GroupsFailed)},
		{"Distinct names", strconv.Itoa(r.DistinctNames)},
		{"References", strconv.Itoa(r.Total)},
		{"Matched", strconv.Itoa(r.Matched)},
		{"Unmatched", strconv.Itoa(r.Unmatched)},
		{"Ambiguous", strconv.Itoa(r.AmbiguousReferences)},
		{"Match rate", rate},
	}

	strategies := make([]string, 0, len(r.StrategyHits))
	for s := range r.StrategyHits {
		strategies = append(strategies, s)
	}
	sort.Strings(strategies)
	for _, s := range strategies {
		pairs = append(pairs, [2]string{"Strategy " + s, strconv.Itoa(r.StrategyHits[s])})
	}

	out := summaryTable(pairs)
	if len(r.Ambiguities) == 0 {
		return out
	}

	rows := make([][]string, len(r.Ambiguities))
	for i, a := range r.Ambiguities {
		rows[i] = []string{a.Name, a.Selected.String(), strings.Join(a.Candidates, " | "), strconv.Itoa(a.References)}
	}
	return out + "\n" + renderTable(
		[]string{"Ambiguous name", "Selected", "Candidates", "Refs"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight},
	)
}
