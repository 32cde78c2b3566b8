package localnet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/gagliardetto/solana-go"
)

// AccountStore persists local ledger accounts.
type AccountStore interface {
	// Get returns the account at key, or nil, nil when it does not exist.
	Get(key solana.PublicKey) (*Account, error)
	// Commit applies every change atomically. A nil account deletes the key.
	Commit(changes map[solana.PublicKey]*Account) error
	// Len returns the number of stored accounts.
	Len() (int, error)
	Close() error
}

// MemoryStore is an in-memory AccountStore.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[solana.PublicKey]*Account
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[solana.PublicKey]*Account)}
}

func (s *MemoryStore) Get(key solana.PublicKey) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[key].Clone(), nil
}

func (s *MemoryStore) Commit(changes map[solana.PublicKey]*Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, acct := range changes {
		if acct == nil {
			delete(s.accounts, key)
			continue
		}
		s.accounts[key] = acct.Clone()
	}
	return nil
}

func (s *MemoryStore) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

const accountKeyPrefix = "account:"

// BadgerStore is an AccountStore persisted in BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a BadgerStore at path. An empty path
// opens an in-memory database.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func makeAccountKey(key solana.PublicKey) []byte {
	out := make([]byte, len(accountKeyPrefix)+solana.PublicKeyLength)
	copy(out, accountKeyPrefix)
	copy(out[len(accountKeyPrefix):], key[:])
	return out
}

func (s *BadgerStore) Get(key solana.PublicKey) (*Account, error) {
	var acct *Account
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeAccountKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var derr error
			acct, derr = deserializeAccount(val)
			return derr
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acct, nil
}

func (s *BadgerStore) Commit(changes map[solana.PublicKey]*Account) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for key, acct := range changes {
			if acct == nil {
				if err := txn.Delete(makeAccountKey(key)); err != nil {
					return err
				}
				continue
			}
			data, err := serializeAccount(acct)
			if err != nil {
				return fmt.Errorf("failed to serialize account: %w", err)
			}
			if err := txn.Set(makeAccountKey(key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit accounts: %w", err)
	}
	return nil
}

func (s *BadgerStore) Len() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(accountKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var (
	_ AccountStore = (*MemoryStore)(nil)
	_ AccountStore = (*BadgerStore)(nil)
)
