// Package store contains the GORM-backed SQLite models of the local journal.
//
// Database Structure (database file: journal.db):
//
//	<node_home>/databases/
//	└── journal.db
//	    └── operations
package store

import (
	"gorm.io/gorm"
)

// Operation statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Operation records one marketplace transaction submitted by this client.
type Operation struct {
	gorm.Model
	OperationID string `gorm:"uniqueIndex;not null"` // ULID assigned when the operation is recorded
	Kind        string `gorm:"index;not null"`       // "sell", "buy" or "cancel"
	Mint        string `gorm:"index;not null"`       // Base58 mint of the listed item
	Signer      string // Base58 fee payer / primary signer
	Lamports    uint64 // Listing price for sell, paid price for buy
	Signature   string `gorm:"index"`          // Transaction signature (empty until sent)
	Status      string `gorm:"index;not null"` // "pending", "confirmed" or "failed"
	ErrorMsg    string `gorm:"type:text"`      // Error message if the operation failed
}
