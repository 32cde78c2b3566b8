package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/rs/zerolog"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/config"
	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/layout"
)

// JSON-RPC error codes that mean the transaction itself was rejected.
const (
	rpcCodeSimulationFailed      = -32002
	rpcCodeSignatureVerifyFailed = -32003
)

// rpcAPI is the subset of *rpc.Client the ledger uses.
type rpcAPI interface {
	GetHealth(ctx context.Context) (string, error)
	GetSlot(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Options configures an RPCLedger.
type Options struct {
	RPCURLs        []string
	Commitment     rpc.CommitmentType
	RequestTimeout time.Duration
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	Retry          *RetryConfig
}

// OptionsFromConfig maps the client config onto ledger options.
func OptionsFromConfig(cfg *config.Config) Options {
	retry := DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries
	retry.InitialDelay = cfg.RetryBackoff()

	return Options{
		RPCURLs:        cfg.RPCURLs,
		Commitment:     rpc.CommitmentType(cfg.Commitment),
		RequestTimeout: cfg.RequestTimeout(),
		ConfirmTimeout: cfg.ConfirmTimeout(),
		PollInterval:   500 * time.Millisecond,
		Retry:          retry,
	}
}

func (o *Options) setDefaults() {
	if o.Commitment == "" {
		o.Commitment = rpc.CommitmentConfirmed
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.ConfirmTimeout == 0 {
		o.ConfirmTimeout = 60 * time.Second
	}
	if o.PollInterval == 0 {
		o.PollInterval = 500 * time.Millisecond
	}
}

// RPCLedger implements Ledger over one or more Solana JSON-RPC endpoints
// with round-robin failover.
type RPCLedger struct {
	clients []rpcAPI
	index   uint64
	mu      sync.RWMutex
	opts    Options
	retry   *RetryManager
	logger  zerolog.Logger
}

var _ Ledger = (*RPCLedger)(nil)

// NewRPCLedger connects to every URL in opts.RPCURLs, skipping endpoints that
// are unreachable or unhealthy.
func NewRPCLedger(ctx context.Context, opts Options, logger zerolog.Logger) (*RPCLedger, error) {
	if len(opts.RPCURLs) == 0 {
		return nil, tyerrors.NewConfigError("no RPC URLs provided")
	}
	opts.setDefaults()

	log := logger.With().Str("component", "rpc_ledger").Logger()
	clients := make([]rpcAPI, 0, len(opts.RPCURLs))

	for _, url := range opts.RPCURLs {
		client := rpc.New(url)

		hctx, cancel := context.WithTimeout(ctx, opts.RequestTimeout)
		health, err := client.GetHealth(hctx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("failed to connect to RPC endpoint, skipping")
			continue
		}
		if health != "ok" {
			log.Warn().Str("url", url).Str("health", health).Msg("node is not healthy, skipping")
			continue
		}

		clients = append(clients, client)
		log.Info().Str("url", url).Msg("connected to RPC endpoint")
	}

	if len(clients) == 0 {
		return nil, tyerrors.NewRPCError("failed to connect to any RPC endpoint", nil)
	}
	return newRPCLedger(clients, opts, log), nil
}

func newRPCLedger(clients []rpcAPI, opts Options, logger zerolog.Logger) *RPCLedger {
	opts.setDefaults()
	return &RPCLedger{
		clients: clients,
		opts:    opts,
		retry:   NewRetryManager(opts.Retry, logger),
		logger:  logger,
	}
}

// executeWithFailover runs fn against each endpoint in turn until one
// succeeds. A rejected transaction is returned immediately: every endpoint
// would reject it the same way.
func (l *RPCLedger) executeWithFailover(ctx context.Context, operation string, fn func(context.Context, rpcAPI) error) error {
	l.mu.RLock()
	clients := l.clients
	l.mu.RUnlock()

	if len(clients) == 0 {
		return tyerrors.NewRPCError(fmt.Sprintf("no RPC clients available for %s", operation), nil)
	}

	var lastErr error
	for attempt := 0; attempt < len(clients); attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		index := atomic.AddUint64(&l.index, 1) - 1
		client := clients[index%uint64(len(clients))]

		rctx, cancel := context.WithTimeout(ctx, l.opts.RequestTimeout)
		err := fn(rctx, client)
		cancel()
		if err == nil {
			return nil
		}
		if rejected := asRejection(err); rejected != nil {
			return rejected
		}
		lastErr = err

		l.logger.Warn().
			Str("operation", operation).
			Int("attempt", attempt+1).
			Err(err).
			Msg("operation failed, trying next endpoint")
	}

	return tyerrors.NewRPCError(
		fmt.Sprintf("operation %s failed after trying %d endpoints", operation, len(clients)), lastErr)
}

func asRejection(err error) error {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return nil
	}
	switch rpcErr.Code {
	case rpcCodeSimulationFailed, rpcCodeSignatureVerifyFailed:
		return tyerrors.NewTransactionError("transaction rejected", err).
			WithContext("rpc_code", rpcErr.Code)
	default:
		return nil
	}
}

// GetAccountData implements Ledger.
func (l *RPCLedger) GetAccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	var (
		data   []byte
		absent bool
	)

	err := l.retry.ExecuteWithRetry(ctx, "get_account_data", func() error {
		return l.executeWithFailover(ctx, "get_account_info", func(rctx context.Context, client rpcAPI) error {
			out, err := client.GetAccountInfoWithOpts(rctx, addr, &rpc.GetAccountInfoOpts{
				Encoding:   solana.EncodingBase64,
				Commitment: l.opts.Commitment,
			})
			if errors.Is(err, rpc.ErrNotFound) {
				absent = true
				return nil
			}
			if err != nil {
				return err
			}
			if out == nil || out.Value == nil || out.Value.Data == nil {
				absent = true
				return nil
			}
			data = out.Value.Data.GetBinary()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if absent || layout.IsZeroed(data) {
		return nil, tyerrors.NewAbsentRecordError(addr.String())
	}
	return data, nil
}

// GetLatestSlot returns the latest slot at the configured commitment.
func (l *RPCLedger) GetLatestSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	err := l.executeWithFailover(ctx, "get_slot", func(rctx context.Context, client rpcAPI) error {
		var innerErr error
		slot, innerErr = client.GetSlot(rctx, l.opts.Commitment)
		return innerErr
	})
	return slot, err
}

// IsHealthy reports whether any endpoint answers.
func (l *RPCLedger) IsHealthy(ctx context.Context) bool {
	_, err := l.GetLatestSlot(ctx)
	return err == nil
}

// GetRecentBlockhash gets a recent blockhash for transaction building
func (l *RPCLedger) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	var blockhash solana.Hash
	err := l.executeWithFailover(ctx, "get_latest_blockhash", func(rctx context.Context, client rpcAPI) error {
		resp, innerErr := client.GetLatestBlockhash(rctx, rpc.CommitmentFinalized)
		if innerErr != nil {
			return innerErr
		}
		if resp == nil || resp.Value == nil {
			return fmt.Errorf("empty blockhash response")
		}
		blockhash = resp.Value.Blockhash
		return nil
	})
	return blockhash, err
}

// BuildTransaction assembles and signs a transaction. The first signer pays the fee.
func BuildTransaction(
	instructions []solana.Instruction,
	signers []solana.PrivateKey,
	blockhash solana.Hash,
) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, tyerrors.NewValidationError("transaction has no instructions")
	}
	if len(signers) == 0 {
		return nil, tyerrors.NewValidationError("transaction has no signers")
	}

	detached, err := detach(instructions)
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction(
		detached,
		blockhash,
		solana.TransactionPayer(signers[0].PublicKey()),
	)
	if err != nil {
		return nil, tyerrors.NewTransactionError("failed to create transaction", err)
	}

	keys := make(map[solana.PublicKey]solana.PrivateKey, len(signers))
	for _, s := range signers {
		keys[s.PublicKey()] = s
	}
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if k, ok := keys[key]; ok {
			return &k
		}
		return nil
	})
	if err != nil {
		return nil, tyerrors.NewTransactionError("failed to sign transaction", err)
	}
	return tx, nil
}

// detach copies instructions so that compiling a message never rewrites the
// caller's account metas. solana.NewTransaction marks the fee payer's meta
// signer and writable in place.
func detach(instructions []solana.Instruction) ([]solana.Instruction, error) {
	out := make([]solana.Instruction, len(instructions))
	for i, inst := range instructions {
		data, err := inst.Data()
		if err != nil {
			return nil, tyerrors.NewEncodingError(fmt.Sprintf("instruction %d data: %v", i, err))
		}
		accounts := inst.Accounts()
		metas := make(solana.AccountMetaSlice, len(accounts))
		for j, m := range accounts {
			meta := *m
			metas[j] = &meta
		}
		out[i] = solana.NewInstruction(inst.ProgramID(), metas, data)
	}
	return out, nil
}

// SubmitTransaction implements Ledger.
func (l *RPCLedger) SubmitTransaction(
	ctx context.Context,
	instructions []solana.Instruction,
	signers []solana.PrivateKey,
) (solana.Signature, error) {
	var sig solana.Signature

	err := l.retry.ExecuteWithRetry(ctx, "submit_transaction", func() error {
		blockhash, err := l.GetRecentBlockhash(ctx)
		if err != nil {
			return err
		}
		tx, err := BuildTransaction(instructions, signers, blockhash)
		if err != nil {
			return err
		}
		sig, err = l.sendTransaction(ctx, tx)
		return err
	})
	if err != nil {
		return solana.Signature{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, l.opts.ConfirmTimeout)
	defer cancel()
	if err := l.WaitForConfirmation(cctx, sig, l.opts.Commitment); err != nil {
		return sig, err
	}

	l.logger.Info().
		Str("signature", sig.String()).
		Int("instructions", len(instructions)).
		Msg("transaction confirmed")
	return sig, nil
}

func (l *RPCLedger) sendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	var sig solana.Signature
	err := l.executeWithFailover(ctx, "send_transaction", func(rctx context.Context, client rpcAPI) error {
		var innerErr error
		sig, innerErr = client.SendTransactionWithOpts(rctx, tx, rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: l.opts.Commitment,
		})
		return innerErr
	})
	if err != nil {
		return solana.Signature{}, err
	}

	l.logger.Debug().
		Str("signature", sig.String()).
		Msg("transaction sent")
	return sig, nil
}

var confirmationRank = map[rpc.ConfirmationStatusType]int{
	rpc.ConfirmationStatusProcessed: 1,
	rpc.ConfirmationStatusConfirmed: 2,
	rpc.ConfirmationStatusFinalized: 3,
}

var commitmentRank = map[rpc.CommitmentType]int{
	rpc.CommitmentProcessed: 1,
	rpc.CommitmentConfirmed: 2,
	rpc.CommitmentFinalized: 3,
}

// WaitForConfirmation polls the signature status until it reaches commitment,
// fails on chain, or ctx ends.
func (l *RPCLedger) WaitForConfirmation(ctx context.Context, sig solana.Signature, commitment rpc.CommitmentType) error {
	want, ok := commitmentRank[commitment]
	if !ok {
		return tyerrors.NewValidationError(fmt.Sprintf("unsupported commitment %q", commitment))
	}

	ticker := time.NewTicker(l.opts.PollInterval)
	defer ticker.Stop()

	for {
		var statuses *rpc.GetSignatureStatusesResult
		err := l.executeWithFailover(ctx, "get_signature_statuses", func(rctx context.Context, client rpcAPI) error {
			var innerErr error
			statuses, innerErr = client.GetSignatureStatuses(rctx, false, sig)
			return innerErr
		})
		if err != nil {
			l.logger.Debug().Err(err).Msg("error checking transaction status")
		} else if statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return tyerrors.NewTransactionError("transaction failed", fmt.Errorf("%v", status.Err)).
					WithContext("signature", sig.String())
			}
			if confirmationRank[status.ConfirmationStatus] >= want {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return tyerrors.NewTimeoutError("transaction not confirmed in time").
					WithContext("signature", sig.String())
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close drops every endpoint.
func (l *RPCLedger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clients = nil
}
