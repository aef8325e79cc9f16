package models

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// View runs fn inside a read-only transaction
func (db *Database) View(fn func(tx *Tx) error) error {
	return db.store.Bolt().View(func(btx *bbolt.Tx) error {
		return fn(&Tx{store: db.store, tx: btx})
	})
}

// Update runs fn inside a read-write transaction. Every write made by fn is
// committed together, or rolled back when fn returns an error.
func (db *Database) Update(fn func(tx *Tx) error) error {
	return db.store.Bolt().Update(func(btx *bbolt.Tx) error {
		return fn(&Tx{store: db.store, tx: btx})
	})
}

// Backup writes a consistent copy of the database file to w
func (db *Database) Backup(w io.Writer) (int64, error) {
	var n int64
	err := db.store.Bolt().View(func(btx *bbolt.Tx) error {
		var err error
		n, err = btx.WriteTo(w)
		return err
	})
	return n, err
}

// BackupSize returns the size in bytes of a backup taken now
func (db *Database) BackupSize() (int64, error) {
	var size int64
	err := db.store.Bolt().View(func(btx *bbolt.Tx) error {
		size = btx.Size()
		return nil
	})
	return size, err
}

// BackupToFile writes a snapshot to path, replacing any existing file atomically
func (db *Database) BackupToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".backup-*")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := db.Backup(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close backup file: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}

// Read helpers, each in its own transaction

// GetTitleByID retrieves a title by ID
func (db *Database) GetTitleByID(id uint64) (*Title, error) {
	var title *Title
	err := db.View(func(tx *Tx) error {
		var err error
		title, err = tx.GetTitle(id)
		return err
	})
	return title, err
}

// GetAllTitles retrieves all titles
func (db *Database) GetAllTitles() ([]*Title, error) {
	var titles []*Title
	err := db.View(func(tx *Tx) error {
		var err error
		titles, err = tx.FindTitles()
		return err
	})
	return titles, err
}

func sortByID[T any](items []T, id func(T) uint64) {
	sort.Slice(items, func(i, j int) bool {
		return id(items[i]) < id(items[j])
	})
}
