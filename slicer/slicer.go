// Package slicer turns per-entity version chains into features with
// half-open validity intervals.
//
// Chains are walked in descending version order. The upper bound starts at
// the extraction cutoff; every version closes the interval of the versions
// before it, deletions included. A version only produces features when it
// is visible, carries tags after cleanup and yields a geometry.
package slicer

import (
	"time"

	"github.com/ohdm/chronotile/mapping"
)

type Config struct {
	// Cutoff bounds the validity of the newest version of every entity.
	Cutoff time.Time
	Srid   int
	// MaxRingGap is the tolerance for closing almost-closed rings, in
	// target projection units.
	MaxRingGap float64
}

// Slicer holds the shared slicing parameters. It is stateless beyond its
// configuration and safe for concurrent use.
type Slicer struct {
	conf  Config
	class *mapping.Classifier
}

func New(conf Config, class *mapping.Classifier) *Slicer {
	if conf.Srid == 0 {
		conf.Srid = 3857
	}
	if conf.MaxRingGap == 0 {
		conf.MaxRingGap = 0.1 // ~0.1m in webmercator
	}
	if conf.Cutoff.IsZero() {
		conf.Cutoff = time.Now().UTC()
	}
	return &Slicer{conf: conf, class: class}
}

// interval is one step of the descending walk over a version chain.
type interval struct {
	since time.Time
	until time.Time
}

// walk yields the validity interval of each chain entry, newest first.
// The returned function reports an empty interval for versions that are
// succeeded by an edit with the same timestamp.
func (s *Slicer) walk() func(timestamp time.Time) interval {
	upper := s.conf.Cutoff
	return func(ts time.Time) interval {
		iv := interval{since: ts, until: upper}
		upper = ts
		return iv
	}
}

func (iv interval) empty() bool {
	return !iv.until.After(iv.since)
}
