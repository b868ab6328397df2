package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/corpusarch/carch/internal/output"
)

var (
	versionsRun   string
	versionsRepo  string
	versionsSince string
	versionsUntil string
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Tabulate the corpus versions of a stored survey run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := parseDate(versionsSince)
		if err != nil {
			return err
		}
		until, err := parseDate(versionsUntil)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := resolveRun(cmd, store, versionsRun, versionsRepo)
		if err != nil {
			return err
		}
		versions, err := store.ListVersions(cmd.Context(), runID, since, until)
		if err != nil {
			return err
		}

		output.WriteVersionsTable(os.Stdout, versions)
		return nil
	},
}

func init() {
	versionsCmd.Flags().StringVar(&versionsRun, "run", "", "survey run id (default: latest)")
	versionsCmd.Flags().StringVar(&versionsRepo, "repo", "", "repository owner/name to pick the latest run of")
	versionsCmd.Flags().StringVar(&versionsSince, "since", "", "only versions from this date (YYYY-MM-DD)")
	versionsCmd.Flags().StringVar(&versionsUntil, "until", "", "only versions until this date (YYYY-MM-DD)")
	rootCmd.AddCommand(versionsCmd)
}
