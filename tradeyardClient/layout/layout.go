// Package layout holds the binary layouts exchanged with the marketplace
// program and a single codec that reads and writes them.
//
// Layouts are plain data: an ordered list of named, typed fields. All
// integers are little-endian, there is no padding, and fixed-size fields
// carry no length prefix.
package layout

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// FieldKind is the wire type of a layout field.
type FieldKind uint8

const (
	FieldU8 FieldKind = iota
	FieldU64
	FieldPubkey
	FieldOptionU8
	FieldOptionU64
)

func (k FieldKind) String() string {
	switch k {
	case FieldU8:
		return "u8"
	case FieldU64:
		return "u64"
	case FieldPubkey:
		return "pubkey"
	case FieldOptionU8:
		return "option<u8>"
	case FieldOptionU64:
		return "option<u64>"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// minSize is the number of bytes the field takes when an optional value is absent.
func (k FieldKind) minSize() int {
	switch k {
	case FieldU8:
		return 1
	case FieldU64:
		return 8
	case FieldPubkey:
		return solana.PublicKeyLength
	case FieldOptionU8, FieldOptionU64:
		return 1
	default:
		return 0
	}
}

// maxSize is the number of bytes the field takes when an optional value is present.
func (k FieldKind) maxSize() int {
	switch k {
	case FieldOptionU8:
		return 2
	case FieldOptionU64:
		return 9
	default:
		return k.minSize()
	}
}

// Field is one named entry of a Layout.
type Field struct {
	Name string
	Kind FieldKind
}

// Layout is an ordered field table.
type Layout struct {
	Name   string
	Fields []Field
}

// MinSize is the smallest encoding of the layout (every option absent).
func (l Layout) MinSize() int {
	n := 0
	for _, f := range l.Fields {
		n += f.Kind.minSize()
	}
	return n
}

// MaxSize is the largest encoding of the layout (every option present).
func (l Layout) MaxSize() int {
	n := 0
	for _, f := range l.Fields {
		n += f.Kind.maxSize()
	}
	return n
}

// Field names shared by the typed wrappers and the generic codec.
const (
	FieldNameInstruction  = "instruction"
	FieldNameLamports     = "lamports"
	FieldNameMetadataBump = "metadata_bump"
	FieldNameSeller       = "seller"
	FieldNameMint         = "mint"
	FieldNamePayment      = "payment"
	FieldNameItem         = "item"
)

// PayloadLayout is the instruction data every marketplace instruction carries.
var PayloadLayout = Layout{
	Name: "payload",
	Fields: []Field{
		{Name: FieldNameInstruction, Kind: FieldU8},
		{Name: FieldNameLamports, Kind: FieldOptionU64},
		{Name: FieldNameMetadataBump, Kind: FieldOptionU8},
	},
}

// ItemMetadataLayout is the listing record stored at the item metadata address.
var ItemMetadataLayout = Layout{
	Name: "item_metadata",
	Fields: []Field{
		{Name: FieldNameSeller, Kind: FieldPubkey},
		{Name: FieldNameMint, Kind: FieldPubkey},
		{Name: FieldNameLamports, Kind: FieldU64},
		{Name: FieldNamePayment, Kind: FieldPubkey},
		{Name: FieldNameItem, Kind: FieldPubkey},
	},
}

// ItemMetadataSize is the encoded size of an ItemMetadata record.
const ItemMetadataSize = 136
