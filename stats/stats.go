// Package stats tracks import progress and exports Prometheus metrics.
package stats

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ohdm/chronotile/log"
)

var (
	importedEntities = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronotile_import_entities_total",
		Help: "Entity version chains processed during import.",
	}, []string{"type"})
	emittedFeatures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronotile_import_features_total",
		Help: "Time-sliced features written to the database.",
	})
)

// Progress counts processed entities and emitted features and reports
// rates once per second until Stop.
type Progress struct {
	nodes     int64
	ways      int64
	relations int64
	features  int64
	done      chan struct{}
}

func NewProgress() *Progress {
	p := &Progress{done: make(chan struct{})}
	go p.report()
	return p
}

func (p *Progress) AddNodes(n int) {
	atomic.AddInt64(&p.nodes, int64(n))
	importedEntities.WithLabelValues("node").Add(float64(n))
}

func (p *Progress) AddWays(n int) {
	atomic.AddInt64(&p.ways, int64(n))
	importedEntities.WithLabelValues("way").Add(float64(n))
}

func (p *Progress) AddRelations(n int) {
	atomic.AddInt64(&p.relations, int64(n))
	importedEntities.WithLabelValues("relation").Add(float64(n))
}

func (p *Progress) AddFeatures(n int) {
	atomic.AddInt64(&p.features, int64(n))
	emittedFeatures.Add(float64(n))
}

// Stop prints a final summary and ends the reporter.
func (p *Progress) Stop() {
	close(p.done)
	p.print()
}

func (p *Progress) report() {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			p.print()
		case <-p.done:
			return
		}
	}
}

func (p *Progress) print() {
	log.Printf("Nodes: %d Ways: %d Relations: %d Features: %d",
		atomic.LoadInt64(&p.nodes),
		atomic.LoadInt64(&p.ways),
		atomic.LoadInt64(&p.relations),
		atomic.LoadInt64(&p.features),
	)
}
