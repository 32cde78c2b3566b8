package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/constant"
)

//go:embed default_config.json
var defaultConfigJSON []byte

func validateConfig(cfg *Config) error {
	// Validate log level
	if cfg.LogLevel < 0 || cfg.LogLevel > 5 {
		return fmt.Errorf("log level must be between 0 and 5")
	}

	// Validate log format
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return fmt.Errorf("log format must be 'json' or 'console'")
	}

	if cfg.ProgramID != "" {
		if _, err := solana.PublicKeyFromBase58(cfg.ProgramID); err != nil {
			return fmt.Errorf("program id is not a valid base58 public key: %w", err)
		}
	}

	if cfg.Commitment == "" {
		cfg.Commitment = CommitmentConfirmed
	}
	switch cfg.Commitment {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
	default:
		return fmt.Errorf("commitment must be 'processed', 'confirmed' or 'finalized'")
	}

	if cfg.Ledger == "" {
		cfg.Ledger = LedgerRPC
	}
	if cfg.Ledger != LedgerRPC && cfg.Ledger != LedgerLocalnet {
		return fmt.Errorf("ledger must be 'rpc' or 'localnet'")
	}

	if len(cfg.RPCURLs) == 0 {
		cfg.RPCURLs = []string{"http://127.0.0.1:8899"}
	}

	// Set defaults for RPC behaviour
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = 10
	}
	if cfg.ConfirmTimeoutSeconds == 0 {
		cfg.ConfirmTimeoutSeconds = 60
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoffSeconds == 0 {
		cfg.RetryBackoffSeconds = 1
	}

	// Set defaults for query server
	if cfg.QueryServerPort == 0 {
		cfg.QueryServerPort = 8080
	}

	// Set defaults for the journal
	if cfg.JournalRetentionHours == 0 {
		cfg.JournalRetentionHours = 720
	}
	if cfg.JournalCleanupIntervalMinutes == 0 {
		cfg.JournalCleanupIntervalMinutes = 60
	}

	if cfg.NodeHome == "" {
		cfg.NodeHome = constant.NodeHome()
	}

	return nil
}

// Save writes the given config to <basePath>/config/tradeyard_config.json.
func Save(cfg *Config, basePath string) error {
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	configDir := filepath.Join(basePath, constant.ConfigSubdir)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configDir, constant.ConfigFileName)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load reads, validates and returns the config from <basePath>/config/tradeyard_config.json.
func Load(basePath string) (Config, error) {
	configFile := filepath.Join(basePath, constant.ConfigSubdir, constant.ConfigFileName)
	data, err := os.ReadFile(filepath.Clean(configFile))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDefaultConfig loads the default configuration from embedded JSON
func LoadDefaultConfig() (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(defaultConfigJSON, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	return &cfg, nil
}
