package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"gopkg.in/yaml.v2"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/address"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/layout"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/market"
)

// Output formats
const (
	OutputFormatYAML = "yaml"
	OutputFormatJSON = "json"
)

// AddressesOutput represents the derived addresses of a mint
type AddressesOutput struct {
	ProgramID         string `yaml:"program_id" json:"program_id"`
	Mint              string `yaml:"mint" json:"mint"`
	Item              string `yaml:"item" json:"item"`
	ItemBump          uint8  `yaml:"item_bump" json:"item_bump"`
	ItemMetadata      string `yaml:"item_metadata" json:"item_metadata"`
	ItemMetadataBump  uint8  `yaml:"item_metadata_bump" json:"item_metadata_bump"`
	ProgramItemWallet string `yaml:"program_item_wallet" json:"program_item_wallet"`
}

// ListingOutput represents an active listing
type ListingOutput struct {
	Seller   string `yaml:"seller" json:"seller"`
	Mint     string `yaml:"mint" json:"mint"`
	Lamports uint64 `yaml:"lamports" json:"lamports"`
	Price    string `yaml:"price" json:"price"`
	Payment  string `yaml:"payment" json:"payment"`
	Item     string `yaml:"item" json:"item"`
}

// AccountOutput is one account reference of an instruction
type AccountOutput struct {
	Address  string `yaml:"address" json:"address"`
	Signer   bool   `yaml:"signer" json:"signer"`
	Writable bool   `yaml:"writable" json:"writable"`
}

// InstructionOutput is an unsigned instruction with base58 data
type InstructionOutput struct {
	ProgramID string          `yaml:"program_id" json:"program_id"`
	Accounts  []AccountOutput `yaml:"accounts" json:"accounts"`
	Data      string          `yaml:"data" json:"data"`
}

// TransactionOutput is the result of a submitted transaction
type TransactionOutput struct {
	Kind      string `yaml:"kind" json:"kind"`
	Mint      string `yaml:"mint" json:"mint"`
	Signature string `yaml:"signature" json:"signature"`
}

func newAddressesOutput(programID solana.PublicKey, set address.Set) AddressesOutput {
	return AddressesOutput{
		ProgramID:         programID.String(),
		Mint:              set.Mint.String(),
		Item:              set.Item.String(),
		ItemBump:          set.ItemBump,
		ItemMetadata:      set.ItemMetadata.String(),
		ItemMetadataBump:  set.ItemMetadataBump,
		ProgramItemWallet: set.ProgramItemWallet.String(),
	}
}

// newListingOutput renders the price with the payment mint's decimals.
func newListingOutput(m *layout.ItemMetadata, decimals uint8) ListingOutput {
	return ListingOutput{
		Seller:   m.Seller.String(),
		Mint:     m.Mint.String(),
		Lamports: m.Lamports,
		Price:    market.FormatAmount(m.Lamports, decimals),
		Payment:  m.Payment.String(),
		Item:     m.Item.String(),
	}
}

func newInstructionOutputs(instructions []solana.Instruction) ([]InstructionOutput, error) {
	out := make([]InstructionOutput, 0, len(instructions))
	for _, ins := range instructions {
		data, err := ins.Data()
		if err != nil {
			return nil, fmt.Errorf("failed to encode instruction data: %w", err)
		}
		accounts := make([]AccountOutput, 0, len(ins.Accounts()))
		for _, meta := range ins.Accounts() {
			accounts = append(accounts, AccountOutput{
				Address:  meta.PublicKey.String(),
				Signer:   meta.IsSigner,
				Writable: meta.IsWritable,
			})
		}
		out = append(out, InstructionOutput{
			ProgramID: ins.ProgramID().String(),
			Accounts:  accounts,
			Data:      base58.Encode(data),
		})
	}
	return out, nil
}

// printOutput prints the output in the specified format
func printOutput(w io.Writer, data interface{}, format string) error {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(data)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
