package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all settings of the survey pipeline.
type Config struct {
	GitHub  GitHubConfig  `yaml:"github" mapstructure:"github"`
	Corpus  CorpusConfig  `yaml:"corpus" mapstructure:"corpus"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Survey  SurveyConfig  `yaml:"survey" mapstructure:"survey"`
}

// GitHubConfig configures the commit-graph API transport.
type GitHubConfig struct {
	Token string `yaml:"token" mapstructure:"token"`
	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// RateLimit is the client-side pacing in requests per second.
	RateLimit  int           `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	PageSize   int           `yaml:"page_size" mapstructure:"page_size"`
}

// CorpusConfig describes how documents are located inside the repository.
type CorpusConfig struct {
	// FolderCandidates are tried in order; the corpora moved their document
	// folder at least once over their history ("data" before "tei").
	FolderCandidates []string `yaml:"folder_candidates" mapstructure:"folder_candidates"`
	// DocumentSuffix is stripped from file names to form document
	// identifiers; files without it are counted as non-documents.
	DocumentSuffix string `yaml:"document_suffix" mapstructure:"document_suffix"`
}

// StorageConfig locates the local survey store.
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SurveyConfig tunes the snapshot-building pipeline.
type SurveyConfig struct {
	// Workers bounds the number of concurrent tree resolutions.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// SampleEvery keeps every n-th commit; 1 keeps all of them.
	SampleEvery int `yaml:"sample_every" mapstructure:"sample_every"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		GitHub: GitHubConfig{
			RateLimit:  5,
			MaxRetries: 4,
			Timeout:    30 * time.Second,
			PageSize:   100,
		},
		Corpus: CorpusConfig{
			FolderCandidates: []string{"tei", "data"},
			DocumentSuffix:   ".xml",
		},
		Storage: StorageConfig{
			Path: filepath.Join(homeDir, ".carch", "survey.db"),
		},
		Survey: SurveyConfig{
			Workers:     8,
			SampleEvery: 1,
		},
	}
}

// Load loads configuration from file, environment and defaults.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("github", cfg.GitHub)
	v.SetDefault("corpus", cfg.Corpus)
	v.SetDefault("storage", cfg.Storage)
	v.SetDefault("survey", cfg.Survey)

	v.SetEnvPrefix("CARCH")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".carch")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".carch"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// no config file is fine, defaults apply
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would break the pipeline silently.
func (c *Config) Validate() error {
	if c.GitHub.RateLimit <= 0 {
		return fmt.Errorf("github.rate_limit must be positive, got %d", c.GitHub.RateLimit)
	}
	if c.GitHub.PageSize <= 0 || c.GitHub.PageSize > 100 {
		return fmt.Errorf("github.page_size must be in 1..100, got %d", c.GitHub.PageSize)
	}
	if len(c.Corpus.FolderCandidates) == 0 {
		return fmt.Errorf("corpus.folder_candidates must not be empty")
	}
	if c.Survey.Workers <= 0 {
		return fmt.Errorf("survey.workers must be positive, got %d", c.Survey.Workers)
	}
	if c.Survey.SampleEvery <= 0 {
		return fmt.Errorf("survey.sample_every must be positive, got %d", c.Survey.SampleEvery)
	}
	return nil
}

// Save writes the configuration to a YAML file, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// loadEnvFiles loads .env files in order of precedence.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".carch", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies well-known environment variables.
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if rl := os.Getenv("GITHUB_RATE_LIMIT"); rl != "" {
		if n, err := strconv.Atoi(rl); err == nil {
			cfg.GitHub.RateLimit = n
		}
	}
	if path := os.Getenv("CARCH_STORE"); path != "" {
		cfg.Storage.Path = path
	}
}
