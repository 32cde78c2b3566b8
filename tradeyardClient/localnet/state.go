package localnet

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// txState buffers account changes of one transaction on top of the store.
type txState struct {
	store   AccountStore
	changes map[solana.PublicKey]*Account
}

func newTxState(store AccountStore) *txState {
	return &txState{store: store, changes: make(map[solana.PublicKey]*Account)}
}

// get returns a copy of the account, or nil when it does not exist.
func (s *txState) get(key solana.PublicKey) (*Account, error) {
	if acct, ok := s.changes[key]; ok {
		return acct.Clone(), nil
	}
	return s.store.Get(key)
}

func (s *txState) put(key solana.PublicKey, acct *Account) {
	s.changes[key] = acct.Clone()
}

func (s *txState) remove(key solana.PublicKey) {
	s.changes[key] = nil
}

func (s *txState) commit() error {
	return s.store.Commit(s.changes)
}

// invocation is one instruction executing against a txState. Account
// privileges come from the compiled message, where the fee payer is always
// a writable signer, and only apply to accounts passed to the instruction.
type invocation struct {
	state   *txState
	message *solana.Message
	metas   []*solana.AccountMeta
	signers map[solana.PublicKey]bool
}

func (iv *invocation) key(i int) (solana.PublicKey, error) {
	if i >= len(iv.metas) {
		return solana.PublicKey{}, fmt.Errorf("%w: want index %d, have %d", ErrNotEnoughAccountKeys, i, len(iv.metas))
	}
	return iv.metas[i].PublicKey, nil
}

func (iv *invocation) keys(n int) ([]solana.PublicKey, error) {
	if len(iv.metas) < n {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrNotEnoughAccountKeys, n, len(iv.metas))
	}
	out := make([]solana.PublicKey, n)
	for i := 0; i < n; i++ {
		out[i] = iv.metas[i].PublicKey
	}
	return out, nil
}

func (iv *invocation) has(key solana.PublicKey) bool {
	for _, m := range iv.metas {
		if m.PublicKey.Equals(key) {
			return true
		}
	}
	return false
}

// isSigner reports whether key is a signer of the transaction and actually signed.
func (iv *invocation) isSigner(key solana.PublicKey) bool {
	return iv.has(key) && iv.message.IsSigner(key) && iv.signers[key]
}

func (iv *invocation) isWritable(key solana.PublicKey) bool {
	return iv.has(key) && iv.message.IsWritableStatic(key)
}

func (iv *invocation) write(key solana.PublicKey, acct *Account) error {
	if !iv.isWritable(key) {
		return fmt.Errorf("%w: %s", ErrReadonlyAccount, key)
	}
	iv.state.put(key, acct)
	return nil
}

func (iv *invocation) remove(key solana.PublicKey) error {
	if !iv.isWritable(key) {
		return fmt.Errorf("%w: %s", ErrReadonlyAccount, key)
	}
	iv.state.remove(key)
	return nil
}
