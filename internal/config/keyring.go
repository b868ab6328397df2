package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain.
	KeyringService = "CorpusArch"

	// KeyringGitHubTokenItem is the key for the GitHub token.
	KeyringGitHubTokenItem = "github-token"
)

// KeyringManager handles secure token storage in the OS keychain.
type KeyringManager struct {
	logger *logrus.Logger
}

// NewKeyringManager creates a new keyring manager.
func NewKeyringManager(logger *logrus.Logger) *KeyringManager {
	return &KeyringManager{logger: logger}
}

// SaveGitHubToken stores the GitHub token in the OS keychain.
// macOS: Keychain Access, Windows: Credential Manager, Linux: Secret Service.
func (km *KeyringManager) SaveGitHubToken(token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := keyring.Set(KeyringService, KeyringGitHubTokenItem, token); err != nil {
		km.logger.WithError(err).Error("Failed to save token to keychain")
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}
	km.logger.WithField("service", KeyringService).Info("GitHub token saved to keychain")
	return nil
}

// GetGitHubToken retrieves the GitHub token from the OS keychain.
// An unset token is not an error; the zero string is returned.
func (km *KeyringManager) GetGitHubToken() (string, error) {
	token, err := keyring.Get(KeyringService, KeyringGitHubTokenItem)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		km.logger.WithError(err).Error("Failed to get token from keychain")
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}
	return token, nil
}

// DeleteGitHubToken removes the GitHub token from the OS keychain.
func (km *KeyringManager) DeleteGitHubToken() error {
	err := keyring.Delete(KeyringService, KeyringGitHubTokenItem)
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		km.logger.WithError(err).Error("Failed to delete token from keychain")
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}
	return nil
}

// ResolveToken returns the GitHub token to use, in order of precedence:
// explicit config value, GITHUB_TOKEN environment variable, OS keychain.
// An empty result means unauthenticated requests (a much lower rate limit).
func ResolveToken(cfg *Config, logger *logrus.Logger) string {
	if cfg.GitHub.Token != "" {
		return cfg.GitHub.Token
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token
	}
	token, err := NewKeyringManager(logger).GetGitHubToken()
	if err != nil {
		return ""
	}
	return token
}
