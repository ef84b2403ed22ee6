// Package locstore is a reference bptree.RecordStore backed by badger, a
// pure Go embedded key-value store. Each record is addressed by a Location,
// a KSUID minted at write time; KSUIDs sort by creation time, which keeps
// badger's LSM tree append-friendly under the tree's own split/merge churn.
package locstore

import (
	"encoding/gob"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	"github.com/Ralphd42/bplus-tree"
)

// Location identifies one record within a Store.
type Location = ksuid.KSUID

func init() {
	gob.Register(Location{})
}

// rootKeyPrefix begins the key reserved to hold the encoded root pointer of a
// tree. Node keys begin with their fileID and ':' followed by the raw KSUID
// bytes, so a root key cannot equal a node key unless a fileID itself starts
// with a NUL byte.
const rootKeyPrefix = "\x00root:"

// Store is a bptree.RecordStore backed by a badger database. One Store may
// back several trees, each under its own fileID namespace.
type Store struct {
	db *badger.DB
}

// Open opens or creates a badger database at dir on disk.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "locstore: open")
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a badger database that never touches disk, useful for
// tests and the CLI visualizer.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "locstore: open in-memory")
	}
	return &Store{db: db}, nil
}

// Close releases the underlying badger database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nodeKey(fileID string, loc Location) []byte {
	return append([]byte(fileID+":"), loc.Bytes()...)
}

func rootKey(fileID string) []byte {
	return []byte(rootKeyPrefix + fileID)
}

// First returns the reserved root-pointer location for a fileID namespace.
// It is distinguished by construction (see rootKey) from any minted Location.
func (s *Store) First() any {
	return rootKeySentinel{}
}

type rootKeySentinel struct{}

// Add stores data at a freshly minted location.
func (s *Store) Add(fileID string, data []byte) (any, error) {
	loc := ksuid.New()
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nodeKey(fileID, loc), data)
	})
	if err != nil {
		return nil, errors.Wrap(err, "locstore: add")
	}
	return loc, nil
}

// Get retrieves the record at loc, or the root pointer if loc is the value
// returned by First.
func (s *Store) Get(fileID string, loc any) (data []byte, ok bool, err error) {
	key, kerr := keyFor(fileID, loc)
	if kerr != nil {
		return nil, false, kerr
	}
	err = s.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(key)
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		ok = true
		return item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "locstore: get")
	}
	return data, ok, nil
}

// Put overwrites the record at loc and returns what it displaced.
func (s *Store) Put(fileID string, loc any, data []byte) (prior []byte, err error) {
	key, kerr := keyFor(fileID, loc)
	if kerr != nil {
		return nil, kerr
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if item, getErr := txn.Get(key); getErr == nil {
			_ = item.Value(func(val []byte) error {
				prior = append([]byte(nil), val...)
				return nil
			})
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, errors.Wrap(err, "locstore: put")
	}
	return prior, nil
}

// Remove clears the record at loc and returns what it held.
func (s *Store) Remove(fileID string, loc any) (prior []byte, err error) {
	key, kerr := keyFor(fileID, loc)
	if kerr != nil {
		return nil, kerr
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		item, getErr := txn.Get(key)
		if getErr == badger.ErrKeyNotFound {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		_ = item.Value(func(val []byte) error {
			prior = append([]byte(nil), val...)
			return nil
		})
		return txn.Delete(key)
	})
	if err != nil {
		return nil, errors.Wrap(err, "locstore: remove")
	}
	return prior, nil
}

func keyFor(fileID string, loc any) ([]byte, error) {
	switch v := loc.(type) {
	case rootKeySentinel:
		return rootKey(fileID), nil
	case Location:
		return nodeKey(fileID, v), nil
	default:
		return nil, bptree.ErrInvalidLocation
	}
}
