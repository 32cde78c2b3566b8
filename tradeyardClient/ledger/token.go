package ledger

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

// NewTokenTransferInstruction moves amount tokens from source to destination,
// authorised by owner.
func NewTokenTransferInstruction(source, destination, owner solana.PublicKey, amount uint64) solana.Instruction {
	return token.NewTransferInstruction(
		amount,
		source,
		destination,
		owner,
		[]solana.PublicKey{},
	).Build()
}
