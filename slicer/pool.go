package slicer

import (
	"runtime"
	"sync"

	"github.com/ohdm/chronotile/database"
	"github.com/ohdm/chronotile/element"
	"github.com/ohdm/chronotile/stats"
)

type looper interface {
	loop()
}

// writer fans version chains out to concurrent slicing workers and feeds
// the emitted features to an inserter.
type writer struct {
	slicer   *Slicer
	inserter database.Inserter
	progress *stats.Progress
	wg       *sync.WaitGroup
	writer   looper

	mu  sync.Mutex
	err error
}

func (w *writer) Start() {
	concurrency := runtime.NumCPU()
	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.writer.loop()
	}
}

// Wait blocks until the input channel is closed and drained and returns
// the first insert error.
func (w *writer) Wait() error {
	w.wg.Wait()
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *writer) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *writer) insert(features []element.Feature) {
	for _, f := range features {
		if err := w.inserter.Insert(f); err != nil {
			w.setErr(err)
			return
		}
	}
	w.progress.AddFeatures(len(features))
}

type NodeWriter struct {
	writer
	chains chan []element.NodeVersion
}

// NewNodeWriter slices node chains from the channel. Chains must not be
// reused by the sender after they are sent.
func NewNodeWriter(s *Slicer, chains chan []element.NodeVersion,
	inserter database.Inserter, progress *stats.Progress) *NodeWriter {
	nw := &NodeWriter{
		writer: writer{slicer: s, inserter: inserter, progress: progress, wg: &sync.WaitGroup{}},
		chains: chains,
	}
	nw.writer.writer = nw
	return nw
}

func (nw *NodeWriter) loop() {
	defer nw.wg.Done()
	for chain := range nw.chains {
		nw.progress.AddNodes(len(chain))
		nw.insert(nw.slicer.SliceNode(chain))
	}
}

type WayWriter struct {
	writer
	chains chan []element.WayVersion
}

func NewWayWriter(s *Slicer, chains chan []element.WayVersion,
	inserter database.Inserter, progress *stats.Progress) *WayWriter {
	ww := &WayWriter{
		writer: writer{slicer: s, inserter: inserter, progress: progress, wg: &sync.WaitGroup{}},
		chains: chains,
	}
	ww.writer.writer = ww
	return ww
}

func (ww *WayWriter) loop() {
	defer ww.wg.Done()
	for chain := range ww.chains {
		ww.progress.AddWays(len(chain))
		ww.insert(ww.slicer.SliceWay(chain))
	}
}

type RelationWriter struct {
	writer
	chains   chan []element.RelationVersion
	resolver WayResolver
}

func NewRelationWriter(s *Slicer, resolver WayResolver, chains chan []element.RelationVersion,
	inserter database.Inserter, progress *stats.Progress) *RelationWriter {
	rw := &RelationWriter{
		writer: writer{slicer: s, inserter: inserter, progress: progress, wg: &sync.WaitGroup{}},
		chains:   chains,
		resolver: resolver,
	}
	rw.writer.writer = rw
	return rw
}

func (rw *RelationWriter) loop() {
	defer rw.wg.Done()
	for chain := range rw.chains {
		rw.progress.AddRelations(len(chain))
		features, err := rw.slicer.SliceRelation(chain, rw.resolver)
		if err != nil {
			rw.setErr(err)
			continue
		}
		rw.insert(features)
	}
}
