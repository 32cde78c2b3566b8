package config

import "time"

// Commitment levels accepted for transaction confirmation.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// Ledger backends.
const (
	LedgerRPC      = "rpc"      // remote Solana JSON-RPC endpoints
	LedgerLocalnet = "localnet" // in-process ledger persisted under <node_home>/localnet
)

type Config struct {
	// Log Config
	LogLevel   int    `json:"log_level"`   // e.g., 0 = debug, 1 = info, etc.
	LogFormat  string `json:"log_format"`  // "json" or "console"
	LogSampler bool   `json:"log_sampler"` // if true, samples logs (e.g., 1 in 5)

	// Node Config
	NodeHome string `json:"node_home"` // Client home directory (default: ~/.tradeyard)

	// Marketplace program
	ProgramID string `json:"program_id"` // Base58 id of the deployed marketplace program

	// Ledger
	Ledger                string   `json:"ledger"`                  // "rpc" or "localnet" (default: rpc)
	RPCURLs               []string `json:"rpc_urls"`                // Solana JSON-RPC endpoints, tried round-robin
	Commitment            string   `json:"commitment"`              // processed, confirmed or finalized (default: confirmed)
	RequestTimeoutSeconds int      `json:"request_timeout_seconds"` // Per-request RPC timeout (default: 10)
	ConfirmTimeoutSeconds int      `json:"confirm_timeout_seconds"` // How long to wait for confirmation (default: 60)
	MaxRetries            int      `json:"max_retries"`             // Max retry attempts for retryable RPC errors (default: 3)
	RetryBackoffSeconds   int      `json:"retry_backoff_seconds"`   // Initial backoff between retries (default: 1)

	// Query Server Config
	QueryServerPort int `json:"query_server_port"` // Port for HTTP query server (default: 8080)

	// Journal
	JournalEnabled                bool `json:"journal_enabled"`                  // Record submitted operations in a local SQLite journal
	JournalRetentionHours         int  `json:"journal_retention_hours"`          // Finished operations older than this are removed (default: 720)
	JournalCleanupIntervalMinutes int  `json:"journal_cleanup_interval_minutes"` // How often the cleaner runs (default: 60)

	// Signing
	KeypairPath string `json:"keypair_path"` // Solana CLI keypair file used by the CLI (default: ~/.config/solana/id.json)
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ConfirmTimeout returns the confirmation timeout as a duration.
func (c *Config) ConfirmTimeout() time.Duration {
	return time.Duration(c.ConfirmTimeoutSeconds) * time.Second
}

// RetryBackoff returns the initial retry backoff as a duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSeconds) * time.Second
}

// JournalRetention returns the journal retention period as a duration.
func (c *Config) JournalRetention() time.Duration {
	return time.Duration(c.JournalRetentionHours) * time.Hour
}

// JournalCleanupInterval returns the journal cleanup interval as a duration.
func (c *Config) JournalCleanupInterval() time.Duration {
	return time.Duration(c.JournalCleanupIntervalMinutes) * time.Minute
}
