package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/corpusarch/carch/internal/corpus"
	"github.com/corpusarch/carch/internal/output"
)

var (
	diffRun  string
	diffRepo string
)

var diffCmd = &cobra.Command{
	Use:   "diff sha1 sha2",
	Short: "Diff two stored snapshots",
	Long: `Diff two stored snapshots of a survey run. The snapshots are ordered
by their timestamps before diffing, so the argument order does not matter.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := resolveRun(cmd, store, diffRun, diffRepo)
		if err != nil {
			return err
		}

		first, err := store.GetSnapshot(cmd.Context(), runID, args[0])
		if err != nil {
			return err
		}
		second, err := store.GetSnapshot(cmd.Context(), runID, args[1])
		if err != nil {
			return err
		}

		earlier, later := first, second
		if later.Timestamp.Before(earlier.Timestamp) {
			earlier, later = later, earlier
		}

		output.WriteChangeTable(os.Stdout, corpus.Diff(earlier, later))
		return nil
	},
}

func init() {
	diffCmd.Flags().StringVar(&diffRun, "run", "", "survey run id (default: latest)")
	diffCmd.Flags().StringVar(&diffRepo, "repo", "", "repository owner/name to pick the latest run of")
	rootCmd.AddCommand(diffCmd)
}
