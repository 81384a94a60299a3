package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "rubik",
		Short:         "Link course schedules to instructor ratings",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path (YAML)")
	flags.String("data-dir", "", "Directory holding the roster, observations and groups")
	flags.String("backend", "", "Storage backend: json or sqlite")
	flags.String("sqlite-path", "", "SQLite database file, relative to the data directory")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")
	flags.Int("worker-count", 0, "Resolution workers; 1 resolves inline")
	flags.Int("queue-size", 0, "Resolution queue bound; 0 sizes it to the pass")
	flags.Bool("enrich", false, "Copy name and rating fields onto linked references")

	rootCmd.AddCommand(newLinkCommand(ctx))
	rootCmd.AddCommand(newConsolidateCommand(ctx))
	rootCmd.AddCommand(newMatchCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))

	return rootCmd
}
