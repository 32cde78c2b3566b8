// Package ledger is the client's view of the Solana ledger: reading account
// data and submitting signed transactions.
package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Ledger is the transaction-submission collaborator used by the marketplace service.
type Ledger interface {
	// GetAccountData returns the raw data of addr. A missing account, or one
	// whose data is empty or all zeros, yields errors.ErrAbsentRecord.
	GetAccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error)

	// SubmitTransaction signs instructions with signers (the first signer pays
	// the fee), submits them as one transaction and waits for confirmation.
	SubmitTransaction(ctx context.Context, instructions []solana.Instruction, signers []solana.PrivateKey) (solana.Signature, error)
}
