package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/config"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/constant"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/db"
	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/instruction"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/ledger"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/localnet"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/logger"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/market"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/metrics"
)

// app holds the components a command runs against.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	builder  *instruction.Builder
	ledger   ledger.Ledger
	net      *localnet.Localnet // set when the localnet ledger is configured
	journal  *db.DB             // nil when the journal is disabled
	registry *prometheus.Registry
	service  *market.Service
	closers  []func() error
}

// loadConfig reads the config of homeDir and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(homeDir)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, tyerrors.NewConfigError(
			fmt.Sprintf("no config found in %s, run 'tradeyard init' first", homeDir))
	}
	if err != nil {
		return config.Config{}, err
	}
	cfg.NodeHome = homeDir
	if programIDFlag != "" {
		cfg.ProgramID = programIDFlag
	}
	if cfg.ProgramID == "" {
		return config.Config{}, tyerrors.NewConfigError("program_id is not set, pass --program-id or edit the config")
	}
	return cfg, nil
}

// newOfflineApp loads what is needed to build instructions without a ledger.
func newOfflineApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogSampler)

	builder, err := instruction.NewBuilder(cfg.ProgramID, log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, builder: builder}, nil
}

// newApp wires the ledger, journal, metrics and marketplace service.
func newApp(ctx context.Context) (*app, error) {
	a, err := newOfflineApp()
	if err != nil {
		return nil, err
	}
	if err := a.openLedger(ctx); err != nil {
		a.Close()
		return nil, err
	}

	opts := []market.Option{}
	if a.cfg.JournalEnabled {
		dir := filepath.Join(a.cfg.NodeHome, constant.DatabasesSubdir)
		a.journal, err = db.OpenFileDB(dir, constant.JournalDBName, true)
		if err != nil {
			a.Close()
			return nil, tyerrors.NewDatabaseError("open journal", err)
		}
		a.closers = append(a.closers, a.journal.Close)
		opts = append(opts, market.WithJournal(a.journal))
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(a.registry)
	if err != nil {
		a.Close()
		return nil, err
	}
	opts = append(opts, market.WithMetrics(m))

	a.service = market.NewService(a.builder, a.ledger, a.log, opts...)
	return a, nil
}

func (a *app) openLedger(ctx context.Context) error {
	switch a.cfg.Ledger {
	case config.LedgerLocalnet:
		store, err := localnet.OpenBadgerStore(filepath.Join(a.cfg.NodeHome, constant.LocalnetSubdir))
		if err != nil {
			return tyerrors.NewDatabaseError("open localnet store", err)
		}
		a.net = localnet.New(store, a.builder.ProgramID(), a.log)
		a.ledger = a.net
		a.closers = append(a.closers, a.net.Close)
	default:
		rpcLedger, err := ledger.NewRPCLedger(ctx, ledger.OptionsFromConfig(&a.cfg), a.log)
		if err != nil {
			return err
		}
		a.ledger = rpcLedger
		a.closers = append(a.closers, func() error { rpcLedger.Close(); return nil })
	}
	return nil
}

// Close releases everything opened by newApp in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("failed to close component")
		}
	}
	a.closers = nil
}

// loadKeypair reads a Solana CLI keypair file. An empty path falls back to
// keypair_path from the config, then to the Solana CLI default.
func (a *app) loadKeypair(path string) (solana.PrivateKey, error) {
	if path == "" {
		path = a.cfg.KeypairPath
	}
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "solana", "id.json")
	}
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, tyerrors.NewConfigError(fmt.Sprintf("failed to load keypair %s: %v", path, err))
	}
	return key, nil
}

func parsePublicKey(name, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, tyerrors.NewValidationError(fmt.Sprintf("--%s is not a valid base58 public key", name))
	}
	return key, nil
}
