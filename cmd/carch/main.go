package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/corpusarch/carch/internal/config"
	"github.com/corpusarch/carch/internal/github"
	"github.com/corpusarch/carch/internal/logging"
	"github.com/corpusarch/carch/internal/storage"
)

// zeroTime means "unbounded" in store queries.
var zeroTime time.Time

var (
	// Version information (set by build flags)
	Version = "dev"

	cfgFile string
	verbose bool
	logFile string
	logJSON bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "carch",
	Short: "carch - corpus archaeology over GitHub commit histories",
	Long: `carch reconstructs the version history of a living corpus from its
GitHub repository: which documents existed at each commit, how large they
were, and what each commit added, removed, renamed or modified.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.Options{
			Verbose: verbose,
			File:    logFile,
			JSON:    logJSON,
		})
		if err != nil {
			return err
		}

		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .carch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "duplicate log output into a file")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log in JSON format")
}

// newAPIClient builds the GitHub client with the resolved token.
func newAPIClient() (github.API, error) {
	ghCfg := cfg.GitHub
	ghCfg.Token = config.ResolveToken(cfg, logger)
	if ghCfg.Token == "" {
		logger.Warn("No GitHub token configured; unauthenticated requests are limited to 60/hour")
	}
	return github.NewClient(ghCfg, logger)
}

// openStore opens the local survey store.
func openStore() (storage.Store, error) {
	return storage.NewSQLiteStore(cfg.Storage.Path, logger)
}

// splitRepo parses an "owner/name" argument.
func splitRepo(arg string) (owner, name string, err error) {
	parts := strings.Split(arg, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository must be given as owner/name, got %q", arg)
	}
	return parts[0], parts[1], nil
}

// parseDate parses an optional YYYY-MM-DD flag value.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", value)
	}
	return t, nil
}

// resolveRun finds the run to operate on: explicit id, else the latest run
// for the repository (or overall).
func resolveRun(cmd *cobra.Command, store storage.Store, runID, repository string) (string, error) {
	if runID != "" {
		return runID, nil
	}
	run, err := store.LatestRun(cmd.Context(), repository)
	if err != nil {
		return "", fmt.Errorf("no stored survey run found, run 'carch survey' first: %w", err)
	}
	return run.ID, nil
}
