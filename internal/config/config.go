// Package config holds operator-level configuration for a Clanky process.
//
// Everything here is infrastructure config set by whoever deploys the
// assistant: data directory, LLM provider selection, API keys, the agent
// persona file, and background-job schedules. Set via env vars (CLANKY_*)
// or a config file (clanky.config.yaml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Viper keys. Each maps to an env var with the CLANKY_ prefix
// (e.g. "openai_api_key" → CLANKY_OPENAI_API_KEY) and to a YAML field
// in clanky.config.yaml.
const (
	KeyDataDir        = "data_dir"
	KeyLLMProvider    = "llm_provider"
	KeyLLMModel       = "llm_model"
	KeyOpenAIAPIKey   = "openai_api_key"
	KeyOllamaBaseURL  = "ollama_base_url"
	KeyAgentsFile     = "agents_file"
	KeyLogoAPIKey     = "logo_api_key"
	KeyLogoCron       = "logo_cron"
	KeyHistoryLimit   = "history_limit"
	KeyRateLimitRPM   = "rate_limit_rpm"
	KeyGlobalLimitRPM = "global_rate_limit_rpm"
)

const (
	DefaultProvider     = "openai"
	DefaultModel        = "gpt-4o-mini"
	DefaultOllamaURL    = "http://localhost:11434"
	DefaultHistoryLimit = 10
	DefaultRPM          = 30
	DefaultGlobalRPM    = 300
)

// Config holds resolved configuration for a Clanky process.
type Config struct {
	DataDir        string // base directory for all state (~/.clanky)
	LLMProvider    string // "openai" or "ollama"
	LLMModel       string
	OpenAIAPIKey   string
	OllamaBaseURL  string
	AgentsFile     string // optional path to an agents.yaml overriding the embedded personas
	LogoAPIKey     string // logo.dev API key; enrichment is skipped when empty
	LogoCron       string // cron expression for the logo enrichment job; empty = disabled
	HistoryLimit   int    // max conversation turns included in the classifier prompt
	RateLimitRPM   int    // per-conversation chat requests per minute
	GlobalLimitRPM int    // total chat requests per minute
}

// TransactionsDBPath returns the full path to the transactions SQLite database.
func (c *Config) TransactionsDBPath() string {
	return filepath.Join(c.DataDir, "transactions.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o700)
}

func init() {
	viper.SetEnvPrefix("CLANKY")
	viper.AutomaticEnv()
	viper.SetDefault(KeyLLMProvider, DefaultProvider)
	viper.SetDefault(KeyLLMModel, DefaultModel)
	viper.SetDefault(KeyOllamaBaseURL, DefaultOllamaURL)
	viper.SetDefault(KeyHistoryLimit, DefaultHistoryLimit)
	viper.SetDefault(KeyRateLimitRPM, DefaultRPM)
	viper.SetDefault(KeyGlobalLimitRPM, DefaultGlobalRPM)
}

// Load reads configuration from Viper (which merges env vars, config file,
// and defaults) and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:        resolveDataDir(),
		LLMProvider:    viper.GetString(KeyLLMProvider),
		LLMModel:       viper.GetString(KeyLLMModel),
		OpenAIAPIKey:   viper.GetString(KeyOpenAIAPIKey),
		OllamaBaseURL:  viper.GetString(KeyOllamaBaseURL),
		AgentsFile:     viper.GetString(KeyAgentsFile),
		LogoAPIKey:     viper.GetString(KeyLogoAPIKey),
		LogoCron:       viper.GetString(KeyLogoCron),
		HistoryLimit:   viper.GetInt(KeyHistoryLimit),
		RateLimitRPM:   viper.GetInt(KeyRateLimitRPM),
		GlobalLimitRPM: viper.GetInt(KeyGlobalLimitRPM),
	}

	// OPENAI_API_KEY is honored as a quickstart fallback for local use.
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	if cfg.LLMProvider != "openai" && cfg.LLMProvider != "ollama" {
		return nil, fmt.Errorf("unknown llm_provider %q (want openai or ollama)", cfg.LLMProvider)
	}
	if cfg.HistoryLimit < 0 {
		cfg.HistoryLimit = 0
	}

	return cfg, nil
}

// SetConfigFile points Viper at an explicit config file, or searches the
// working directory and home for clanky.config.yaml when path is empty.
func SetConfigFile(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("clanky.config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && (errors.As(err, &notFound) || os.IsNotExist(err)) {
			return nil // config file is optional unless explicitly requested
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

func resolveDataDir() string {
	if dir := viper.GetString(KeyDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clanky"
	}
	return filepath.Join(home, ".clanky")
}
