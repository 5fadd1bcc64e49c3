// Package store defines the transactional record store the ledger runs on.
//
// Contract:
//   - Update runs fn with exclusive write access; its writes become visible
//     only if fn returns nil, all at once. A failed fn leaves the store as it was.
//   - View runs fn against committed state only.
//   - Insert MUST fail with ErrExists when the key is already present,
//     including keys inserted earlier in the same transaction.
//   - Get MUST return ErrNotFound when the key is absent.
package store

import (
	"context"
	"errors"
	"iter"

	"github.com/storacha/go-esign/address"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrExists   = errors.New("store: key exists")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsExists(err error) bool { return errors.Is(err, ErrExists) }

// Entry is a record and the address it is stored at.
type Entry struct {
	Key   address.Address
	Value []byte
}

type Reader interface {
	Get(key address.Address) ([]byte, error)
	Has(key address.Address) (bool, error)
	// Entries yields every record ordered by the string form of its key.
	Entries() iter.Seq2[Entry, error]
}

type Txn interface {
	Reader
	// Put writes a record, replacing any existing value.
	Put(key address.Address, value []byte) error
	// Insert writes a record that must not exist yet.
	Insert(key address.Address, value []byte) error
}

type Store interface {
	View(ctx context.Context, fn func(Reader) error) error
	Update(ctx context.Context, fn func(Txn) error) error
}
