// Package database defines the store-facing interfaces of the slicing
// pipeline.
package database

import (
	"github.com/ohdm/chronotile/element"
)

// Inserter accepts time-sliced features. Implementations batch writes;
// Close flushes outstanding rows.
type Inserter interface {
	Insert(f element.Feature) error
	Close() error
}

// FeatureStore is the full lifecycle of the feature tables: create and
// truncate on Init, bulk-insert during slicing, post-passes and indexes on
// Finish.
type FeatureStore interface {
	Init() error
	NewInserter() (Inserter, error)
	Finish() error
}
