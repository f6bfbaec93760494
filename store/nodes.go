package store

import (
	"encoding/binary"
	"encoding/json"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	osm "github.com/omniscale/go-osm"

	"github.com/ohdm/chronotile/element"
)

// PutNode stores one node version.
func (s *Store) PutNode(nv element.NodeVersion) error {
	return s.put(nodePrefix, nv.OSMID, nv.Version, nv)
}

// PutNodes stores a batch of node versions.
func (s *Store) PutNodes(nvs []element.NodeVersion) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, nv := range nvs {
		buf, err := json.Marshal(nv)
		if err != nil {
			return err
		}
		if err := wb.Set(versionKey(nodePrefix, nv.OSMID, nv.Version), buf); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// NodeAsOf returns the node position as of t: the latest visible version
// with a timestamp at or before t. The second return is false when no such
// version exists.
func (s *Store) NodeAsOf(osmID int64, t time.Time) (osm.Node, bool, error) {
	var (
		node  osm.Node
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := make([]byte, 9)
		prefix[0] = nodePrefix
		binary.BigEndian.PutUint64(prefix[1:9], uint64(osmID))

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// keys iterate newest version first
		for it.Rewind(); it.Valid(); it.Next() {
			var nv element.NodeVersion
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &nv)
			})
			if err != nil {
				return err
			}
			if nv.Timestamp.After(t) || !nv.Visible {
				continue
			}
			node = osm.Node{Element: osm.Element{ID: osmID}, Lat: nv.Lat, Long: nv.Long}
			found = true
			return nil
		}
		return nil
	})
	return node, found, err
}

// EachNodeChain calls fn once per node with the full version chain in
// descending version order.
func (s *Store) EachNodeChain(fn func(chain []element.NodeVersion) error) error {
	var chain []element.NodeVersion
	decode := func(val []byte) error {
		var nv element.NodeVersion
		if err := json.Unmarshal(val, &nv); err != nil {
			return err
		}
		chain = append(chain, nv)
		return nil
	}
	flush := func(int64) error {
		err := fn(chain)
		chain = chain[:0]
		return err
	}
	return s.eachChain(nodePrefix, decode, flush)
}
