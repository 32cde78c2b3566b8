package instruction

import (
	"fmt"

	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/layout"
)

// Args are the decoded arguments of a marketplace instruction.
// Lamports and MetadataBump are only set for Sell.
type Args struct {
	Kind         Kind
	Lamports     uint64
	MetadataBump uint8
}

// Unpack decodes instruction data. Sell must carry both the price and the
// metadata bump; the optional fields of Buy and Cancel are ignored.
func Unpack(data []byte) (Args, error) {
	payload, err := layout.UnmarshalPayload(data)
	if err != nil {
		return Args{}, err
	}

	kind := Kind(payload.Instruction)
	if !kind.Valid() {
		return Args{}, tyerrors.NewDecodingError(fmt.Sprintf("unknown instruction tag %d", payload.Instruction))
	}

	args := Args{Kind: kind}
	if kind == KindSell {
		lamports, ok := payload.Lamports.Get()
		if !ok {
			return Args{}, tyerrors.NewDecodingError("sell instruction without price")
		}
		bump, ok := payload.MetadataBump.Get()
		if !ok {
			return Args{}, tyerrors.NewDecodingError("sell instruction without metadata bump")
		}
		args.Lamports = lamports
		args.MetadataBump = bump
	}
	return args, nil
}
