// Package localnet is an in-process ledger that executes the marketplace
// program, the SPL token Transfer instruction and the system program against
// a local account store. It serves development and the listing lifecycle
// tests; it does not model fees, rent collection or compute limits.
package localnet

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/rs/zerolog"

	tyerrors "github.com/tradeyard/tradeyard-client/tradeyardClient/errors"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/layout"
	"github.com/tradeyard/tradeyard-client/tradeyardClient/ledger"
)

// Localnet implements ledger.Ledger in process.
type Localnet struct {
	mu      sync.Mutex
	store   AccountStore
	program *marketProgram
	slot    uint64
	logger  zerolog.Logger
}

var _ ledger.Ledger = (*Localnet)(nil)

// New creates a Localnet running the marketplace program at programID.
func New(store AccountStore, programID solana.PublicKey, logger zerolog.Logger) *Localnet {
	return &Localnet{
		store:   store,
		program: &marketProgram{programID: programID},
		logger:  logger.With().Str("component", "localnet").Logger(),
	}
}

// ProgramID returns the id the marketplace program runs under.
func (l *Localnet) ProgramID() solana.PublicKey {
	return l.program.programID
}

// Slot returns the number of transactions applied so far.
func (l *Localnet) Slot() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slot
}

// GetAccount returns a copy of the account at addr, or nil when it does not exist.
func (l *Localnet) GetAccount(ctx context.Context, addr solana.PublicKey) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.store.Get(addr)
}

// GetAccountData implements ledger.Ledger.
func (l *Localnet) GetAccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	acct, err := l.GetAccount(ctx, addr)
	if err != nil {
		return nil, tyerrors.NewRPCError("read local account", err)
	}
	if acct == nil || layout.IsZeroed(acct.Data) {
		return nil, tyerrors.NewAbsentRecordError(addr.String())
	}
	return acct.Data, nil
}

// SubmitTransaction implements ledger.Ledger. Every instruction applies or
// none does.
func (l *Localnet) SubmitTransaction(
	ctx context.Context,
	instructions []solana.Instruction,
	signers []solana.PrivateKey,
) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var blockhash solana.Hash
	copy(blockhash[:], fmt.Sprintf("localnet-slot-%020d", l.slot))
	tx, err := ledger.BuildTransaction(instructions, signers, blockhash)
	if err != nil {
		return solana.Signature{}, err
	}
	sig := tx.Signatures[0]

	signed := make(map[solana.PublicKey]bool, len(signers))
	for _, s := range signers {
		signed[s.PublicKey()] = true
	}

	state := newTxState(l.store)
	for i, inst := range instructions {
		if err := l.execute(state, &tx.Message, inst, signed); err != nil {
			l.logger.Debug().
				Err(err).
				Int("instruction", i).
				Str("program", inst.ProgramID().String()).
				Msg("transaction rejected")
			return sig, tyerrors.NewTransactionError(fmt.Sprintf("instruction %d failed", i), err).
				WithContext("signature", sig.String())
		}
	}

	if err := state.commit(); err != nil {
		return sig, tyerrors.NewDatabaseError("commit local transaction", err)
	}
	l.slot++

	l.logger.Debug().
		Str("signature", sig.String()).
		Int("instructions", len(instructions)).
		Uint64("slot", l.slot).
		Msg("transaction applied")
	return sig, nil
}

func (l *Localnet) execute(state *txState, message *solana.Message, inst solana.Instruction, signed map[solana.PublicKey]bool) error {
	data, err := inst.Data()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}
	iv := &invocation{state: state, message: message, metas: inst.Accounts(), signers: signed}

	for _, m := range iv.metas {
		if m.IsSigner && !signed[m.PublicKey] {
			return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, m.PublicKey)
		}
	}

	switch programID := inst.ProgramID(); {
	case programID.Equals(l.program.programID):
		return l.program.process(iv, data)
	case programID.Equals(solana.TokenProgramID):
		return processToken(iv, data)
	case programID.Equals(solana.SystemProgramID):
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProgram, programID)
	}
}

// Airdrop credits lamports to addr, creating a system account if needed.
func (l *Localnet) Airdrop(ctx context.Context, addr solana.PublicKey, lamports uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, err := l.store.Get(addr)
	if err != nil {
		return err
	}
	if acct == nil {
		acct = &Account{Owner: solana.SystemProgramID}
	}
	acct.Lamports += lamports
	return l.store.Commit(map[solana.PublicKey]*Account{addr: acct})
}

// CreateMint initialises a mint with the given supply. A nil authority
// leaves the mint closed to further minting, as a non-fungible item requires.
func (l *Localnet) CreateMint(ctx context.Context, mint solana.PublicKey, supply uint64, decimals uint8, authority *solana.PublicKey) error {
	data, err := encodeMint(token.Mint{
		MintAuthority: authority,
		Supply:        supply,
		Decimals:      decimals,
		IsInitialized: true,
	})
	if err != nil {
		return err
	}
	return l.putTokenProgramAccount(ctx, mint, data)
}

// CreateTokenAccount initialises a token account for mint owned by owner
// holding amount tokens.
func (l *Localnet) CreateTokenAccount(ctx context.Context, addr, mint, owner solana.PublicKey, amount uint64) error {
	data, err := encodeTokenAccount(token.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  token.Initialized,
	})
	if err != nil {
		return err
	}
	return l.putTokenProgramAccount(ctx, addr, data)
}

func (l *Localnet) putTokenProgramAccount(ctx context.Context, addr solana.PublicKey, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.store.Get(addr)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, addr)
	}
	return l.store.Commit(map[solana.PublicKey]*Account{addr: {
		Owner:    solana.TokenProgramID,
		Lamports: RentExemptMinimum(len(data)),
		Data:     data,
	}})
}

// TokenBalance returns the token amount held by the token account at addr.
func (l *Localnet) TokenBalance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	acct, err := l.GetAccount(ctx, addr)
	if err != nil {
		return 0, err
	}
	state, err := decodeTokenAccount(acct)
	if err != nil {
		return 0, err
	}
	return state.Amount, nil
}

// Close closes the underlying store.
func (l *Localnet) Close() error {
	return l.store.Close()
}
