package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/corpusarch/carch/internal/config"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the GitHub token in the OS keychain",
}

var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Prompt for a GitHub token and store it in the OS keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("GitHub token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		token := strings.TrimSpace(string(raw))
		if token == "" {
			return fmt.Errorf("token must not be empty")
		}
		return config.NewKeyringManager(logger).SaveGitHubToken(token)
	},
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the GitHub token from the OS keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return config.NewKeyringManager(logger).DeleteGitHubToken()
	},
}

func init() {
	authCmd.AddCommand(authSetCmd, authClearCmd)
	rootCmd.AddCommand(authCmd)
}
