package layout

import (
	"github.com/gagliardetto/solana-go"
)

// Payload is the decoded instruction data of a marketplace instruction.
type Payload struct {
	Instruction  uint8
	Lamports     Option[uint64]
	MetadataBump Option[uint8]
}

// MarshalPayload encodes p with PayloadLayout.
func MarshalPayload(p Payload) ([]byte, error) {
	return Encode(PayloadLayout, Values{
		FieldNameInstruction:  p.Instruction,
		FieldNameLamports:     p.Lamports,
		FieldNameMetadataBump: p.MetadataBump,
	})
}

// UnmarshalPayload decodes instruction data with PayloadLayout.
func UnmarshalPayload(data []byte) (Payload, error) {
	values, err := Decode(PayloadLayout, data)
	if err != nil {
		return Payload{}, err
	}
	return Payload{
		Instruction:  values[FieldNameInstruction].(uint8),
		Lamports:     values[FieldNameLamports].(Option[uint64]),
		MetadataBump: values[FieldNameMetadataBump].(Option[uint8]),
	}, nil
}

// ItemMetadata is the listing record for one mint.
type ItemMetadata struct {
	Seller   solana.PublicKey `json:"seller"`
	Mint     solana.PublicKey `json:"mint"`
	Lamports uint64           `json:"lamports"`
	Payment  solana.PublicKey `json:"payment"`
	Item     solana.PublicKey `json:"item"`
}

// MarshalItemMetadata encodes m into its 136-byte record.
func MarshalItemMetadata(m ItemMetadata) ([]byte, error) {
	return Encode(ItemMetadataLayout, Values{
		FieldNameSeller:   m.Seller,
		FieldNameMint:     m.Mint,
		FieldNameLamports: m.Lamports,
		FieldNamePayment:  m.Payment,
		FieldNameItem:     m.Item,
	})
}

// UnmarshalItemMetadata decodes a listing record. data may be longer than
// ItemMetadataSize; the extra bytes are ignored.
func UnmarshalItemMetadata(data []byte) (*ItemMetadata, error) {
	values, err := Decode(ItemMetadataLayout, data)
	if err != nil {
		return nil, err
	}
	return &ItemMetadata{
		Seller:   values[FieldNameSeller].(solana.PublicKey),
		Mint:     values[FieldNameMint].(solana.PublicKey),
		Lamports: values[FieldNameLamports].(uint64),
		Payment:  values[FieldNamePayment].(solana.PublicKey),
		Item:     values[FieldNameItem].(solana.PublicKey),
	}, nil
}

// IsZeroed reports whether data is empty or entirely zero bytes, which is how
// the program leaves a metadata account once a listing is closed.
func IsZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
