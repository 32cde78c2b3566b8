// Package db keeps the local SQLite journal of submitted marketplace
// operations, accessed through GORM.
package db

import (
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/store"
)

// InMemorySQLiteDSN opens an ephemeral database that lives as long as its connection.
const InMemorySQLiteDSN = ":memory:"

const dirPermissions = 0o750

// fileParams are appended to every file DSN: WAL lets the query server read
// while a command writes.
var fileParams = url.Values{
	"_journal_mode": {"WAL"},
	"_busy_timeout": {"5000"},
	"cache":         {"shared"},
	"mode":          {"rwc"},
}

// DB is the operation journal.
type DB struct {
	client *gorm.DB
}

// OpenFileDB opens or creates <dir>/<filename>, creating dir when missing.
// With migrateSchema set, the journal tables are created or updated.
func OpenFileDB(dir, filename string, migrateSchema bool) (*DB, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, errors.Wrap(err, "failed to prepare database path")
	}
	dsn := "file:" + filepath.Join(dir, filename) + "?" + fileParams.Encode()
	return open(dsn, migrateSchema)
}

// OpenInMemoryDB opens a journal that is discarded on Close.
func OpenInMemoryDB(migrateSchema bool) (*DB, error) {
	return open(InMemorySQLiteDSN, migrateSchema)
}

func open(dsn string, migrateSchema bool) (*DB, error) {
	client, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open SQLite database")
	}

	sqlDB, err := client.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}
	// One connection: SQLite serialises writers anyway, and an in-memory
	// database would otherwise differ per connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if migrateSchema {
		if err := client.AutoMigrate(&store.Operation{}); err != nil {
			_ = sqlDB.Close()
			return nil, errors.Wrap(err, "failed to auto-migrate database schema")
		}
	}

	return &DB{client: client}, nil
}

// Client exposes the GORM handle for ad hoc queries.
func (d *DB) Client() *gorm.DB {
	return d.client
}

// Close closes the database connection.
func (d *DB) Close() error {
	sqlDB, err := d.client.DB()
	if err != nil {
		return errors.Wrap(err, "failed to retrieve native sql.DB")
	}
	return errors.Wrap(sqlDB.Close(), "failed to close database connection")
}
