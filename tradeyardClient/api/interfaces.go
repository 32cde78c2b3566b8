package api

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/address"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/layout"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/store"
)

// MarketReader defines the marketplace reads served by the API server
type MarketReader interface {
	Addresses(mint solana.PublicKey) (address.Set, error)
	GetListing(ctx context.Context, mint solana.PublicKey) (*layout.ItemMetadata, error)
}

// OperationLister defines the journal reads served by the API server
type OperationLister interface {
	ListOperationsByMint(mint string, limit int) ([]store.Operation, error)
}
