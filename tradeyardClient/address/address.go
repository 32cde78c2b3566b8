// Package address derives the program-owned addresses that make up a listing.
//
// Every listed mint has three derived accounts: the item PDA, which is the
// authority over the escrowed token; the item metadata PDA, which holds the
// listing record; and the program item wallet, the associated token account
// of the item PDA that actually holds the escrowed token.
package address

import (
	"github.com/gagliardetto/solana-go"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/constant"
	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
)

// SearchFunc finds a program address and its bump for seeds.
type SearchFunc func(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, uint8, error)

func find(search SearchFunc, programID, mint solana.PublicKey, seed string) (solana.PublicKey, uint8, error) {
	addr, bump, err := search([][]byte{[]byte(seed), mint.Bytes()}, programID)
	if err != nil {
		return solana.PublicKey{}, 0, tyerrors.NewDerivationError("no viable bump for seed "+seed, err).
			WithContext("mint", mint.String()).
			WithContext("program_id", programID.String())
	}
	return addr, bump, nil
}

// associatedWallet is the associated token account of owner for mint.
func associatedWallet(search SearchFunc, programID, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	wallet, _, err := search([][]byte{
		owner.Bytes(),
		solana.TokenProgramID.Bytes(),
		mint.Bytes(),
	}, solana.SPLAssociatedTokenAccountProgramID)
	if err != nil {
		return solana.PublicKey{}, tyerrors.NewDerivationError("derive program item wallet", err).
			WithContext("mint", mint.String()).
			WithContext("program_id", programID.String())
	}
	return wallet, nil
}

// FindItemAddress derives the item PDA for mint (seeds: "item", mint).
func FindItemAddress(programID, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return find(solana.FindProgramAddress, programID, mint, constant.ItemSeed)
}

// FindItemMetadataAddress derives the listing record address for mint
// (seeds: "item_metadata", mint). The bump is carried in the Sell payload.
func FindItemMetadataAddress(programID, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return find(solana.FindProgramAddress, programID, mint, constant.ItemMetadataSeed)
}

// FindProgramItemWallet returns the associated token account of the item PDA
// for mint.
func FindProgramItemWallet(programID, mint solana.PublicKey) (solana.PublicKey, error) {
	item, _, err := FindItemAddress(programID, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return associatedWallet(solana.FindProgramAddress, programID, item, mint)
}

// Set holds every derived address for one mint.
type Set struct {
	Mint              solana.PublicKey `json:"mint"`
	Item              solana.PublicKey `json:"item"`
	ItemBump          uint8            `json:"item_bump"`
	ItemMetadata      solana.PublicKey `json:"item_metadata"`
	ItemMetadataBump  uint8            `json:"item_metadata_bump"`
	ProgramItemWallet solana.PublicKey `json:"program_item_wallet"`
}
