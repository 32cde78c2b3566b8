package localnet

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

func encodeTokenAccount(acct token.Account) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBinEncoder(buf).Encode(acct); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeTokenAccount(acct *Account) (*token.Account, error) {
	if acct == nil || !acct.Owner.Equals(solana.TokenProgramID) {
		return nil, fmt.Errorf("%w: not a token account", ErrIllegalOwner)
	}
	var out token.Account
	if err := bin.NewBinDecoder(acct.Data).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	if out.State == token.Uninitialized {
		return nil, fmt.Errorf("%w: token account not initialized", ErrInvalidAccountData)
	}
	return &out, nil
}

func encodeMint(mint token.Mint) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBinEncoder(buf).Encode(mint); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeMint(acct *Account) (*token.Mint, error) {
	if acct == nil || !acct.Owner.Equals(solana.TokenProgramID) {
		return nil, fmt.Errorf("%w: not a mint", ErrIllegalOwner)
	}
	var out token.Mint
	if err := bin.NewBinDecoder(acct.Data).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return &out, nil
}

// transferTokens moves amount from source to destination. authorized says
// whether the source owner has approved the move (a signature, or a program
// signing for its own address).
func transferTokens(iv *invocation, source, destination, authority solana.PublicKey, amount uint64, authorized bool) error {
	srcAcct, err := iv.state.get(source)
	if err != nil {
		return err
	}
	src, err := decodeTokenAccount(srcAcct)
	if err != nil {
		return fmt.Errorf("source %s: %w", source, err)
	}
	dstAcct, err := iv.state.get(destination)
	if err != nil {
		return err
	}
	dst, err := decodeTokenAccount(dstAcct)
	if err != nil {
		return fmt.Errorf("destination %s: %w", destination, err)
	}

	if !src.Owner.Equals(authority) {
		return fmt.Errorf("%w: %s does not own %s", ErrInvalidAccountData, authority, source)
	}
	if !authorized {
		return fmt.Errorf("%w: token owner %s", ErrMissingRequiredSignature, authority)
	}
	if !src.Mint.Equals(dst.Mint) {
		return fmt.Errorf("%w: mint mismatch", ErrInvalidAccountData)
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, src.Amount, amount)
	}

	if source.Equals(destination) {
		return nil
	}
	src.Amount -= amount
	dst.Amount += amount

	if srcAcct.Data, err = encodeTokenAccount(*src); err != nil {
		return err
	}
	if dstAcct.Data, err = encodeTokenAccount(*dst); err != nil {
		return err
	}
	if err := iv.write(source, srcAcct); err != nil {
		return err
	}
	return iv.write(destination, dstAcct)
}

// processToken executes the SPL token instructions the marketplace flow uses.
func processToken(iv *invocation, data []byte) error {
	decoder := bin.NewBinDecoder(data)
	tag, err := decoder.ReadUint8()
	if err != nil {
		return ErrInvalidInstructionData
	}

	switch tag {
	case token.Instruction_Transfer:
		amount, err := decoder.ReadUint64(bin.LE)
		if err != nil {
			return ErrInvalidInstructionData
		}
		keys, err := iv.keys(3)
		if err != nil {
			return err
		}
		source, destination, owner := keys[0], keys[1], keys[2]
		return transferTokens(iv, source, destination, owner, amount, iv.isSigner(owner))
	default:
		return fmt.Errorf("%w: token instruction %d", ErrUnsupportedProgram, tag)
	}
}
