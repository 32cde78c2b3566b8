package localnet

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Account is the local ledger's view of an on-chain account.
type Account struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	return &Account{Owner: a.Owner, Lamports: a.Lamports, Data: data}
}

// MarshalWithEncoder writes owner, lamports and the length-prefixed data.
func (a Account) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteBytes(a.Owner[:], false); err != nil {
		return err
	}
	if err := encoder.WriteUint64(a.Lamports, bin.LE); err != nil {
		return err
	}
	if err := encoder.WriteUint32(uint32(len(a.Data)), bin.LE); err != nil {
		return err
	}
	return encoder.WriteBytes(a.Data, false)
}

// UnmarshalWithDecoder is the inverse of MarshalWithEncoder.
func (a *Account) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	owner, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("read owner: %w", err)
	}
	a.Owner = solana.PublicKeyFromBytes(owner)

	if a.Lamports, err = decoder.ReadUint64(bin.LE); err != nil {
		return fmt.Errorf("read lamports: %w", err)
	}
	size, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return fmt.Errorf("read data length: %w", err)
	}
	data, err := decoder.ReadBytes(int(size))
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}
	a.Data = append([]byte(nil), data...)
	return nil
}

func serializeAccount(a *Account) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := a.MarshalWithEncoder(bin.NewBinEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deserializeAccount(data []byte) (*Account, error) {
	var a Account
	if err := a.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return nil, err
	}
	return &a, nil
}

// RentExemptMinimum approximates the rent-exempt balance for an account of
// space bytes (two years of rent at the default rate).
func RentExemptMinimum(space int) uint64 {
	const (
		accountStorageOverhead = 128
		lamportsPerByteYear    = 3480
		exemptionYears         = 2
	)
	return uint64(accountStorageOverhead+space) * lamportsPerByteYear * exemptionYears
}
