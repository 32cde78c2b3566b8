// Package instruction assembles the Sell, Cancel and Buy instructions of the
// marketplace program. Building is pure: no ledger access happens here and a
// Builder is safe for concurrent use.
package instruction

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/address"
	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/layout"
)

// Builder builds marketplace instructions for one program.
type Builder struct {
	deriver *address.Deriver
	logger  zerolog.Logger
}

// NewBuilder creates a Builder for the base58 program id.
func NewBuilder(programID string, logger zerolog.Logger) (*Builder, error) {
	pid, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, tyerrors.NewValidationError(fmt.Sprintf("invalid program id %q: %v", programID, err))
	}
	return NewBuilderWithDeriver(address.NewDeriver(pid, logger), logger), nil
}

// NewBuilderWithDeriver creates a Builder that shares an existing Deriver.
func NewBuilderWithDeriver(deriver *address.Deriver, logger zerolog.Logger) *Builder {
	return &Builder{
		deriver: deriver,
		logger:  logger.With().Str("component", "instruction_builder").Logger(),
	}
}

// ProgramID returns the marketplace program id.
func (b *Builder) ProgramID() solana.PublicKey {
	return b.deriver.ProgramID()
}

// Deriver returns the address deriver used by the builder.
func (b *Builder) Deriver() *address.Deriver {
	return b.deriver
}

// BuildSell lists mint for price lamports of the payment token. The seller
// signs and funds the new item metadata account.
func (b *Builder) BuildSell(seller, mint, payment solana.PublicKey, price *big.Int) (*solana.GenericInstruction, error) {
	lamports, err := priceToLamports(price)
	if err != nil {
		return nil, err
	}

	addrs, err := b.deriver.Derive(mint)
	if err != nil {
		return nil, err
	}

	data, err := layout.MarshalPayload(layout.Payload{
		Instruction:  uint8(KindSell),
		Lamports:     layout.Some(lamports),
		MetadataBump: layout.Some(addrs.ItemMetadataBump),
	})
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		solana.NewAccountMeta(seller, true, true),
		solana.NewAccountMeta(addrs.ProgramItemWallet, false, false),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(addrs.ItemMetadata, true, false),
		solana.NewAccountMeta(payment, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}

	b.logger.Debug().
		Str("mint", mint.String()).
		Str("seller", seller.String()).
		Uint64("lamports", lamports).
		Uint8("metadata_bump", addrs.ItemMetadataBump).
		Msg("built sell instruction")

	return solana.NewInstruction(b.ProgramID(), accounts, data), nil
}

// BuildCancel withdraws the listing of mint, returning the item to sellerItemWallet.
func (b *Builder) BuildCancel(seller, mint, sellerItemWallet solana.PublicKey) (*solana.GenericInstruction, error) {
	addrs, err := b.deriver.Derive(mint)
	if err != nil {
		return nil, err
	}

	data, err := layout.MarshalPayload(layout.Payload{
		Instruction:  uint8(KindCancel),
		Lamports:     layout.None[uint64](),
		MetadataBump: layout.None[uint8](),
	})
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		solana.NewAccountMeta(seller, false, true),
		solana.NewAccountMeta(addrs.ItemMetadata, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(addrs.ProgramItemWallet, true, false),
		solana.NewAccountMeta(sellerItemWallet, true, false),
		solana.NewAccountMeta(addrs.Item, false, false),
	}

	b.logger.Debug().
		Str("mint", mint.String()).
		Str("seller", seller.String()).
		Msg("built cancel instruction")

	return solana.NewInstruction(b.ProgramID(), accounts, data), nil
}

// BuildBuy purchases mint. The listed price moves from buyerPaymentWallet to
// payment and the item moves to buyerItemWallet.
func (b *Builder) BuildBuy(buyer, buyerPaymentWallet, buyerItemWallet, payment, mint solana.PublicKey) (*solana.GenericInstruction, error) {
	addrs, err := b.deriver.Derive(mint)
	if err != nil {
		return nil, err
	}

	data, err := layout.MarshalPayload(layout.Payload{
		Instruction:  uint8(KindBuy),
		Lamports:     layout.None[uint64](),
		MetadataBump: layout.None[uint8](),
	})
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		solana.NewAccountMeta(buyer, false, true),
		solana.NewAccountMeta(buyerPaymentWallet, true, false),
		solana.NewAccountMeta(buyerItemWallet, true, false),
		solana.NewAccountMeta(addrs.ProgramItemWallet, true, false),
		solana.NewAccountMeta(payment, true, false),
		solana.NewAccountMeta(addrs.ItemMetadata, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(addrs.Item, false, false),
	}

	b.logger.Debug().
		Str("mint", mint.String()).
		Str("buyer", buyer.String()).
		Msg("built buy instruction")

	return solana.NewInstruction(b.ProgramID(), accounts, data), nil
}

func priceToLamports(price *big.Int) (uint64, error) {
	if price == nil {
		return 0, tyerrors.NewEncodingError("price is required")
	}
	if price.Sign() <= 0 {
		return 0, tyerrors.NewEncodingError(fmt.Sprintf("price must be positive, got %s", price))
	}
	if !price.IsUint64() {
		return 0, tyerrors.NewEncodingError(fmt.Sprintf("price %s does not fit in u64", price))
	}
	return price.Uint64(), nil
}
