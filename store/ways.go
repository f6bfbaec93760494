package store

import (
	"encoding/binary"
	"encoding/json"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/ohdm/chronotile/element"
)

// PutWay stores one way version.
func (s *Store) PutWay(wv element.WayVersion) error {
	return s.put(wayPrefix, wv.OSMID, wv.Version, wv)
}

// PutWays stores a batch of way versions.
func (s *Store) PutWays(wvs []element.WayVersion) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, wv := range wvs {
		buf, err := json.Marshal(wv)
		if err != nil {
			return err
		}
		if err := wb.Set(versionKey(wayPrefix, wv.OSMID, wv.Version), buf); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// EachWayChain calls fn once per way with the full version chain in
// descending version order.
func (s *Store) EachWayChain(fn func(chain []element.WayVersion) error) error {
	var chain []element.WayVersion
	decode := func(val []byte) error {
		var wv element.WayVersion
		if err := json.Unmarshal(val, &wv); err != nil {
			return err
		}
		chain = append(chain, wv)
		return nil
	}
	flush := func(int64) error {
		err := fn(chain)
		chain = chain[:0]
		return err
	}
	return s.eachChain(wayPrefix, decode, flush)
}

// WayAsOf returns the way state as of t: the version with the greatest
// timestamp <= t whose ring is closed. Versions that are newer, deleted or
// not closed are skipped. Returns nil when no such version exists.
func (s *Store) WayAsOf(osmID int64, t time.Time) (*element.WayVersion, error) {
	var found *element.WayVersion
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := make([]byte, 9)
		prefix[0] = wayPrefix
		binary.BigEndian.PutUint64(prefix[1:9], uint64(osmID))

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// keys iterate newest version first
		for it.Rewind(); it.Valid(); it.Next() {
			var wv element.WayVersion
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &wv)
			})
			if err != nil {
				return err
			}
			if wv.Timestamp.After(t) {
				continue
			}
			if !wv.Visible || !wv.IsClosed() {
				continue
			}
			found = &wv
			return nil
		}
		return nil
	})
	if err != nil || found == nil {
		return nil, err
	}
	if err := s.ResolveWayNodes(found); err != nil {
		return nil, err
	}
	return found, nil
}

// ResolveWayNodes fills wv.Nodes from the node store, each ref resolved as
// of the way edit. Refs without a resolvable node are dropped.
func (s *Store) ResolveWayNodes(wv *element.WayVersion) error {
	wv.Nodes = wv.Nodes[:0]
	for _, ref := range wv.Refs {
		nd, ok, err := s.NodeAsOf(ref, wv.Timestamp)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		wv.Nodes = append(wv.Nodes, nd)
	}
	return nil
}
