package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/corpusarch/carch/internal/output"
)

var (
	historyRun  string
	historyRepo string
)

var historyCmd = &cobra.Command{
	Use:   "history document",
	Short: "Show one document's size across all versions of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := resolveRun(cmd, store, historyRun, historyRepo)
		if err != nil {
			return err
		}
		samples, err := store.DocumentHistory(cmd.Context(), runID, args[0])
		if err != nil {
			return err
		}

		output.WriteHistoryTable(os.Stdout, args[0], samples)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyRun, "run", "", "survey run id (default: latest)")
	historyCmd.Flags().StringVar(&historyRepo, "repo", "", "repository owner/name to pick the latest run of")
	rootCmd.AddCommand(historyCmd)
}
