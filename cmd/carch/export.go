package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corpusarch/carch/internal/output"
)

var (
	exportRun     string
	exportRepo    string
	exportOut     string
	exportChanges bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a survey run as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := resolveRun(cmd, store, exportRun, exportRepo)
		if err != nil {
			return err
		}
		run, err := store.GetRun(cmd.Context(), runID)
		if err != nil {
			return err
		}
		versions, err := store.ListVersions(cmd.Context(), runID, zeroTime, zeroTime)
		if err != nil {
			return err
		}

		export := output.Export{Run: *run, Versions: versions}
		if exportChanges {
			changes, err := store.ListChanges(cmd.Context(), runID)
			if err != nil {
				return err
			}
			export.Changes = changes
		}

		w := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()
			w = f
		}
		return output.WriteJSON(w, export)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRun, "run", "", "survey run id (default: latest)")
	exportCmd.Flags().StringVar(&exportRepo, "repo", "", "repository owner/name to pick the latest run of")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportChanges, "changes", false, "include per-document change records")
	rootCmd.AddCommand(exportCmd)
}
