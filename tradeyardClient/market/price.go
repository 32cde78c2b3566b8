package market

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
)

// LamportDecimals is the number of decimal places of one SOL.
const LamportDecimals = 9

// MaxDecimals is the largest number of decimal places an amount may be
// scaled by. SPL mints never use more than this in practice.
const MaxDecimals = 18

// FormatAmount renders base units of a token with the given decimals,
// e.g. 2250000 with 6 decimals as "2.25".
func FormatAmount(units uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals)).String()
}

// ParseAmount converts a decimal amount of a token with the given decimals
// to base units. With zero decimals the amount is taken as raw base units.
// Negative amounts and amounts finer than one base unit cannot be encoded
// as a price and are rejected with an encoding error.
func ParseAmount(s string, decimals uint8) (*big.Int, error) {
	if decimals > MaxDecimals {
		return nil, tyerrors.NewValidationError(fmt.Sprintf("decimals must be at most %d", MaxDecimals))
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, tyerrors.NewValidationError("invalid amount " + s)
	}
	if d.IsNegative() {
		return nil, tyerrors.NewEncodingError("amount must not be negative")
	}
	units := d.Shift(int32(decimals))
	if !units.Equal(units.Truncate(0)) {
		return nil, tyerrors.NewEncodingError(fmt.Sprintf("amount %s has more than %d decimal places", s, decimals))
	}
	return units.BigInt(), nil
}

// FormatLamports renders lamports as a SOL amount, e.g. 1500000000 as "1.5".
func FormatLamports(lamports uint64) string {
	return FormatAmount(lamports, LamportDecimals)
}

// ParseSOL converts a SOL amount such as "1.5" to lamports.
func ParseSOL(s string) (*big.Int, error) {
	return ParseAmount(s, LamportDecimals)
}
