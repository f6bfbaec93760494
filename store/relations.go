package store

import (
	"encoding/json"

	"github.com/ohdm/chronotile/element"
)

// PutRelation stores one relation version.
func (s *Store) PutRelation(rv element.RelationVersion) error {
	return s.put(relationPrefix, rv.OSMID, rv.Version, rv)
}

// PutRelations stores a batch of relation versions.
func (s *Store) PutRelations(rvs []element.RelationVersion) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, rv := range rvs {
		buf, err := json.Marshal(rv)
		if err != nil {
			return err
		}
		if err := wb.Set(versionKey(relationPrefix, rv.OSMID, rv.Version), buf); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// EachRelationChain calls fn once per relation with the full version chain
// in descending version order.
func (s *Store) EachRelationChain(fn func(chain []element.RelationVersion) error) error {
	var chain []element.RelationVersion
	decode := func(val []byte) error {
		var rv element.RelationVersion
		if err := json.Unmarshal(val, &rv); err != nil {
			return err
		}
		chain = append(chain, rv)
		return nil
	}
	flush := func(int64) error {
		err := fn(chain)
		chain = chain[:0]
		return err
	}
	return s.eachChain(relationPrefix, decode, flush)
}
