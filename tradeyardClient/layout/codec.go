package layout

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
)

// Values maps field names to Go values. The value type per field kind is:
// u8 -> uint8, u64 -> uint64, pubkey -> solana.PublicKey,
// option<u8> -> Option[uint8], option<u64> -> Option[uint64].
type Values map[string]any

const (
	optionAbsent  = 0
	optionPresent = 1
)

// Encode writes values in the order of the layout's field table.
func Encode(l Layout, values Values) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(l.MaxSize())
	encoder := bin.NewBinEncoder(buf)

	for _, f := range l.Fields {
		v, ok := values[f.Name]
		if !ok {
			return nil, encodingError(l, f, "missing value")
		}
		if err := encodeField(encoder, l, f, v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeField(encoder *bin.Encoder, l Layout, f Field, v any) error {
	var err error
	switch f.Kind {
	case FieldU8:
		n, ok := v.(uint8)
		if !ok {
			return typeMismatch(l, f, v)
		}
		err = encoder.WriteUint8(n)
	case FieldU64:
		n, ok := v.(uint64)
		if !ok {
			return typeMismatch(l, f, v)
		}
		err = encoder.WriteUint64(n, bin.LE)
	case FieldPubkey:
		pk, ok := v.(solana.PublicKey)
		if !ok {
			return typeMismatch(l, f, v)
		}
		err = encoder.WriteBytes(pk[:], false)
	case FieldOptionU8:
		o, ok := v.(Option[uint8])
		if !ok {
			return typeMismatch(l, f, v)
		}
		n, present := o.Get()
		if !present {
			err = encoder.WriteUint8(optionAbsent)
			break
		}
		if err = encoder.WriteUint8(optionPresent); err == nil {
			err = encoder.WriteUint8(n)
		}
	case FieldOptionU64:
		o, ok := v.(Option[uint64])
		if !ok {
			return typeMismatch(l, f, v)
		}
		n, present := o.Get()
		if !present {
			err = encoder.WriteUint8(optionAbsent)
			break
		}
		if err = encoder.WriteUint8(optionPresent); err == nil {
			err = encoder.WriteUint64(n, bin.LE)
		}
	default:
		return encodingError(l, f, "unknown field kind "+f.Kind.String())
	}
	if err != nil {
		return tyerrors.New(tyerrors.ErrCodeEncoding, fmt.Sprintf("%s.%s: write failed", l.Name, f.Name), err)
	}
	return nil
}

// Decode reads a record of layout l from data. Bytes past the end of the
// record are ignored.
func Decode(l Layout, data []byte) (Values, error) {
	if len(data) < l.MinSize() {
		return nil, tyerrors.NewDecodingError(
			fmt.Sprintf("%s: buffer has %d bytes, need at least %d", l.Name, len(data), l.MinSize()))
	}

	decoder := bin.NewBinDecoder(data)
	values := make(Values, len(l.Fields))
	for _, f := range l.Fields {
		v, err := decodeField(decoder, l, f)
		if err != nil {
			return nil, err
		}
		values[f.Name] = v
	}
	return values, nil
}

func decodeField(decoder *bin.Decoder, l Layout, f Field) (any, error) {
	switch f.Kind {
	case FieldU8:
		if err := need(decoder, l, f, 1); err != nil {
			return nil, err
		}
		return decoder.ReadUint8()
	case FieldU64:
		if err := need(decoder, l, f, 8); err != nil {
			return nil, err
		}
		return decoder.ReadUint64(bin.LE)
	case FieldPubkey:
		if err := need(decoder, l, f, solana.PublicKeyLength); err != nil {
			return nil, err
		}
		b, err := decoder.ReadBytes(solana.PublicKeyLength)
		if err != nil {
			return nil, err
		}
		return solana.PublicKeyFromBytes(b), nil
	case FieldOptionU8:
		present, err := readPresence(decoder, l, f)
		if err != nil || !present {
			return None[uint8](), err
		}
		if err := need(decoder, l, f, 1); err != nil {
			return nil, err
		}
		n, err := decoder.ReadUint8()
		if err != nil {
			return nil, err
		}
		return Some(n), nil
	case FieldOptionU64:
		present, err := readPresence(decoder, l, f)
		if err != nil || !present {
			return None[uint64](), err
		}
		if err := need(decoder, l, f, 8); err != nil {
			return nil, err
		}
		n, err := decoder.ReadUint64(bin.LE)
		if err != nil {
			return nil, err
		}
		return Some(n), nil
	default:
		return nil, tyerrors.NewDecodingError(fmt.Sprintf("%s.%s: unknown field kind %s", l.Name, f.Name, f.Kind))
	}
}

func readPresence(decoder *bin.Decoder, l Layout, f Field) (bool, error) {
	if err := need(decoder, l, f, 1); err != nil {
		return false, err
	}
	tag, err := decoder.ReadUint8()
	if err != nil {
		return false, err
	}
	switch tag {
	case optionAbsent:
		return false, nil
	case optionPresent:
		return true, nil
	default:
		return false, tyerrors.NewDecodingError(
			fmt.Sprintf("%s.%s: invalid option presence byte %d", l.Name, f.Name, tag))
	}
}

func need(decoder *bin.Decoder, l Layout, f Field, n int) error {
	if decoder.Remaining() < n {
		return tyerrors.NewDecodingError(
			fmt.Sprintf("%s.%s: need %d bytes, %d remaining", l.Name, f.Name, n, decoder.Remaining()))
	}
	return nil
}

func typeMismatch(l Layout, f Field, v any) error {
	return encodingError(l, f, fmt.Sprintf("expected %s, got %T", f.Kind, v))
}

func encodingError(l Layout, f Field, msg string) error {
	return tyerrors.NewEncodingError(fmt.Sprintf("%s.%s: %s", l.Name, f.Name, msg))
}
