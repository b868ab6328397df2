package main

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/corpusarch/carch/internal/output"
)

var (
	plotRun  string
	plotRepo string
	plotDoc  string
	plotOut  string
	plotOpen bool
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render corpus growth charts to an HTML file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := resolveRun(cmd, store, plotRun, plotRepo)
		if err != nil {
			return err
		}
		run, err := store.GetRun(cmd.Context(), runID)
		if err != nil {
			return err
		}

		var charters []components.Charter
		if plotDoc != "" {
			samples, err := store.DocumentHistory(cmd.Context(), runID, plotDoc)
			if err != nil {
				return err
			}
			charters = append(charters, output.HistoryChart(plotDoc, samples))
		} else {
			versions, err := store.ListVersions(cmd.Context(), runID, zeroTime, zeroTime)
			if err != nil {
				return err
			}
			charters = output.GrowthCharts(run.Repository, versions)
		}

		if err := output.WritePage(plotOut, charters...); err != nil {
			return err
		}
		fmt.Printf("Charts written to %s\n", plotOut)

		if plotOpen {
			if err := browser.OpenFile(plotOut); err != nil {
				logger.WithError(err).Warn("Could not open browser")
			}
		}
		return nil
	},
}

func init() {
	plotCmd.Flags().StringVar(&plotRun, "run", "", "survey run id (default: latest)")
	plotCmd.Flags().StringVar(&plotRepo, "repo", "", "repository owner/name to pick the latest run of")
	plotCmd.Flags().StringVar(&plotDoc, "doc", "", "plot a single document's size instead of the corpus totals")
	plotCmd.Flags().StringVar(&plotOut, "out", "corpus.html", "output HTML file")
	plotCmd.Flags().BoolVar(&plotOpen, "open", false, "open the charts in a browser")
	rootCmd.AddCommand(plotCmd)
}
