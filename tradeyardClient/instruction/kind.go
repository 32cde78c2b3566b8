package instruction

import (
	"fmt"
	"strings"
)

// Kind is the instruction tag carried in the first payload byte.
type Kind uint8

const (
	KindSell   Kind = 0
	KindBuy    Kind = 1
	KindCancel Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindSell:
		return "sell"
	case KindBuy:
		return "buy"
	case KindCancel:
		return "cancel"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the program's instructions.
func (k Kind) Valid() bool {
	return k <= KindCancel
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sell":
		return KindSell, nil
	case "buy":
		return KindBuy, nil
	case "cancel":
		return KindCancel, nil
	default:
		return 0, fmt.Errorf("unknown instruction kind %q", s)
	}
}

// accountNames lists the role of each account, in the order the program expects them.
var accountNames = map[Kind][]string{
	KindSell: {
		"seller",
		"program_item_wallet",
		"mint",
		"item_metadata",
		"payment",
		"system_program",
	},
	KindCancel: {
		"seller",
		"item_metadata",
		"token_program",
		"program_item_wallet",
		"seller_item_wallet",
		"item",
	},
	KindBuy: {
		"buyer",
		"buyer_payment_wallet",
		"buyer_item_wallet",
		"program_item_wallet",
		"payment",
		"item_metadata",
		"token_program",
		"item",
	},
}

// AccountNames returns the account roles of k in program order.
func AccountNames(k Kind) []string {
	names := accountNames[k]
	out := make([]string, len(names))
	copy(out, names)
	return out
}
