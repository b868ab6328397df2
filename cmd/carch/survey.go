package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/corpusarch/carch/internal/output"
	"github.com/corpusarch/carch/internal/survey"
)

var (
	surveySince  string
	surveyUntil  string
	surveySample int
	surveyDryRun bool
)

var surveyCmd = &cobra.Command{
	Use:   "survey owner/repo",
	Short: "Walk a repository's history and persist its corpus timeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, name, err := splitRepo(args[0])
		if err != nil {
			return err
		}
		since, err := parseDate(surveySince)
		if err != nil {
			return err
		}
		until, err := parseDate(surveyUntil)
		if err != nil {
			return err
		}

		api, err := newAPIClient()
		if err != nil {
			return err
		}

		surveyor := survey.New(api, nil, cfg, logger)
		if !surveyDryRun {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			surveyor = survey.New(api, store, cfg, logger)
		}

		result, err := surveyor.Run(cmd.Context(), owner, name, survey.Options{
			Since:       since,
			Until:       until,
			SampleEvery: surveySample,
		})
		if err != nil {
			return err
		}

		output.WriteRunSummary(os.Stdout, result.Run, result.Timeline.Versions)
		return nil
	},
}

func init() {
	surveyCmd.Flags().StringVar(&surveySince, "since", "", "only commits on or after this date (YYYY-MM-DD)")
	surveyCmd.Flags().StringVar(&surveyUntil, "until", "", "only commits on or before this date (YYYY-MM-DD)")
	surveyCmd.Flags().IntVar(&surveySample, "sample-every", 0, "keep every n-th commit (default: all)")
	surveyCmd.Flags().BoolVar(&surveyDryRun, "dry-run", false, "run the pipeline without persisting")
	rootCmd.AddCommand(surveyCmd)
}
