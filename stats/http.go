package stats

import (
	"net/http"
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ohdm/chronotile/log"
)

// StartHTTP serves Prometheus metrics and pprof on bind.
func StartHTTP(bind string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Warnf("metrics listener stopped: %v", http.ListenAndServe(bind, nil))
	}()
}
