// Package market drives the marketplace program: listing an item for sale,
// cancelling a listing, buying a listed item and reading listings.
package market

import (
	"context"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/address"
	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/instruction"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/layout"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/ledger"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/metrics"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/store"
)

// Journal persists submitted operations.
type Journal interface {
	RecordOperation(op *store.Operation) error
	UpdateOperationStatus(operationID, status, signature, errMsg string) error
}

// Service submits marketplace transactions through a Ledger.
type Service struct {
	builder *instruction.Builder
	ledger  ledger.Ledger
	journal Journal
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithJournal records every submitted operation in j.
func WithJournal(j Journal) Option {
	return func(s *Service) { s.journal = j }
}

// WithMetrics reports built instructions and submissions to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a Service.
func NewService(builder *instruction.Builder, l ledger.Ledger, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		builder: builder,
		ledger:  l,
		logger:  logger.With().Str("component", "market").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProgramID returns the marketplace program id.
func (s *Service) ProgramID() solana.PublicKey {
	return s.builder.ProgramID()
}

// Addresses returns the program-derived addresses of mint.
func (s *Service) Addresses(mint solana.PublicKey) (address.Set, error) {
	return s.builder.Deriver().Derive(mint)
}

// GetListing returns the listing of mint, or an ErrAbsentRecord error when
// the item is not listed.
func (s *Service) GetListing(ctx context.Context, mint solana.PublicKey) (*layout.ItemMetadata, error) {
	addrs, err := s.Addresses(mint)
	if err != nil {
		return nil, err
	}
	data, err := s.ledger.GetAccountData(ctx, addrs.ItemMetadata)
	if err != nil {
		return nil, err
	}
	return layout.UnmarshalItemMetadata(data)
}

// ListInstructions builds the token transfer that moves the item from
// sellerItemWallet into program custody, followed by the Sell instruction.
func (s *Service) ListInstructions(seller, mint, sellerItemWallet, payment solana.PublicKey, price *big.Int) ([]solana.Instruction, error) {
	sell, err := s.builder.BuildSell(seller, mint, payment, price)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordInstructionBuilt(instruction.KindSell.String())

	addrs, err := s.Addresses(mint)
	if err != nil {
		return nil, err
	}
	transfer := ledger.NewTokenTransferInstruction(sellerItemWallet, addrs.ProgramItemWallet, seller, 1)
	return []solana.Instruction{transfer, sell}, nil
}

// List moves the item into program custody and creates the listing, in one
// transaction.
func (s *Service) List(
	ctx context.Context,
	seller solana.PrivateKey,
	mint, sellerItemWallet, payment solana.PublicKey,
	price *big.Int,
) (solana.Signature, error) {
	instructions, err := s.ListInstructions(seller.PublicKey(), mint, sellerItemWallet, payment, price)
	if err != nil {
		return solana.Signature{}, err
	}
	return s.submit(ctx, instruction.KindSell, mint, price.Uint64(), instructions, []solana.PrivateKey{seller})
}

// CancelInstructions builds the Cancel instruction.
func (s *Service) CancelInstructions(seller, mint, sellerItemWallet solana.PublicKey) ([]solana.Instruction, error) {
	cancel, err := s.builder.BuildCancel(seller, mint, sellerItemWallet)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordInstructionBuilt(instruction.KindCancel.String())
	return []solana.Instruction{cancel}, nil
}

// Cancel removes the listing of mint and returns the item to sellerItemWallet.
func (s *Service) Cancel(ctx context.Context, seller solana.PrivateKey, mint, sellerItemWallet solana.PublicKey) (solana.Signature, error) {
	instructions, err := s.CancelInstructions(seller.PublicKey(), mint, sellerItemWallet)
	if err != nil {
		return solana.Signature{}, err
	}
	return s.submit(ctx, instruction.KindCancel, mint, 0, instructions, []solana.PrivateKey{seller})
}

// BuyInstructions reads the listing of mint and builds the Buy instruction
// paying its seller. It also returns the listing.
func (s *Service) BuyInstructions(
	ctx context.Context,
	buyer, mint, buyerPaymentWallet, buyerItemWallet solana.PublicKey,
) ([]solana.Instruction, *layout.ItemMetadata, error) {
	listing, err := s.GetListing(ctx, mint)
	if err != nil {
		return nil, nil, tyerrors.Wrapf(err, "read listing of %s", mint)
	}

	buy, err := s.builder.BuildBuy(buyer, buyerPaymentWallet, buyerItemWallet, listing.Payment, mint)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.RecordInstructionBuilt(instruction.KindBuy.String())
	return []solana.Instruction{buy}, listing, nil
}

// Buy pays the listed price from buyerPaymentWallet and receives the item in
// buyerItemWallet.
func (s *Service) Buy(
	ctx context.Context,
	buyer solana.PrivateKey,
	mint, buyerPaymentWallet, buyerItemWallet solana.PublicKey,
) (solana.Signature, error) {
	instructions, listing, err := s.BuyInstructions(ctx, buyer.PublicKey(), mint, buyerPaymentWallet, buyerItemWallet)
	if err != nil {
		return solana.Signature{}, err
	}
	return s.submit(ctx, instruction.KindBuy, mint, listing.Lamports, instructions, []solana.PrivateKey{buyer})
}

func (s *Service) submit(
	ctx context.Context,
	kind instruction.Kind,
	mint solana.PublicKey,
	lamports uint64,
	instructions []solana.Instruction,
	signers []solana.PrivateKey,
) (solana.Signature, error) {
	log := s.logger.With().
		Str("kind", kind.String()).
		Str("mint", mint.String()).
		Logger()

	op := s.recordPending(kind, mint, signers[0].PublicKey(), lamports, log)

	start := time.Now()
	sig, err := s.ledger.SubmitTransaction(ctx, instructions, signers)
	s.metrics.RecordSubmission(kind.String(), err, time.Since(start))

	if err != nil {
		log.Error().Err(err).Str("severity", string(tyerrors.GetSeverity(err))).Msg("transaction failed")
		s.recordOutcome(op, store.StatusFailed, sig, err, log)
		return solana.Signature{}, err
	}

	log.Info().Str("signature", sig.String()).Msg("transaction confirmed")
	s.recordOutcome(op, store.StatusConfirmed, sig, nil, log)
	return sig, nil
}

// recordPending journals the operation before submission. Journal failures
// are logged; they never block the transaction.
func (s *Service) recordPending(
	kind instruction.Kind,
	mint, signer solana.PublicKey,
	lamports uint64,
	log zerolog.Logger,
) *store.Operation {
	if s.journal == nil {
		return nil
	}
	op := &store.Operation{
		Kind:     kind.String(),
		Mint:     mint.String(),
		Signer:   signer.String(),
		Lamports: lamports,
	}
	if err := s.journal.RecordOperation(op); err != nil {
		log.Warn().Err(tyerrors.NewDatabaseError("record operation", err).WithSeverity(tyerrors.SeverityLow)).Msg("journal unavailable")
		return nil
	}
	return op
}

func (s *Service) recordOutcome(op *store.Operation, status string, sig solana.Signature, cause error, log zerolog.Logger) {
	if op == nil {
		return
	}
	signature, errMsg := "", ""
	if sig != (solana.Signature{}) {
		signature = sig.String()
	}
	if cause != nil {
		errMsg = cause.Error()
	}
	if err := s.journal.UpdateOperationStatus(op.OperationID, status, signature, errMsg); err != nil {
		log.Warn().Err(err).Str("operation_id", op.OperationID).Msg("failed to update journal")
	}
}
