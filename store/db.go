// Package store keeps ingested entity versions in a badger database,
// grouped per entity and ordered for the slicers: iteration yields whole
// version chains, newest version first.
package store

import (
	"encoding/binary"
	"encoding/json"
	"math"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

const (
	nodePrefix     byte = 'n'
	wayPrefix      byte = 'w'
	relationPrefix byte = 'r'
)

// Store is a badger-backed version store. Safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a version store in dir. An empty dir opens an
// in-memory store, used by tests.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening version store in %q", dir)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// versionKey orders versions of one entity from newest to oldest: the
// version number is stored inverted, so the default ascending iteration
// walks chains in descending version order.
func versionKey(prefix byte, osmID int64, version int) []byte {
	key := make([]byte, 13)
	key[0] = prefix
	binary.BigEndian.PutUint64(key[1:9], uint64(osmID))
	binary.BigEndian.PutUint32(key[9:13], math.MaxUint32-uint32(version))
	return key
}

func entityKeyID(key []byte) int64 {
	return int64(binary.BigEndian.Uint64(key[1:9]))
}

func (s *Store) put(prefix byte, osmID int64, version int, value interface{}) error {
	buf, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(versionKey(prefix, osmID, version), buf)
	})
}

// eachChain iterates all version chains under prefix. decode unmarshals one
// version value and appends it to the current chain; flush is called once
// per entity with iteration still holding no item references.
func (s *Store) eachChain(prefix byte, decode func(val []byte) error, flush func(osmID int64) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{prefix}
		it := txn.NewIterator(opts)
		defer it.Close()

		currentID := int64(0)
		open := false
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id := entityKeyID(item.Key())
			if open && id != currentID {
				if err := flush(currentID); err != nil {
					return err
				}
			}
			currentID = id
			open = true
			if err := item.Value(decode); err != nil {
				return err
			}
		}
		if open {
			return flush(currentID)
		}
		return nil
	})
}
