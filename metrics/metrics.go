// Package metrics exposes the process's Prometheus instrumentation:
// gauges tracking live store size and the arrival counter, a loader
// progress gauge, and counters for applied updater events and for the
// conditions that stop the updater.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mempool_server"

var (
	// StoreSize tracks the number of transactions currently mirrored.
	StoreSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_size",
		Help:      "Number of transactions currently held in the mempool mirror.",
	})

	// StoreCounter tracks the monotonic arrival counter.
	StoreCounter = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_counter",
		Help:      "Current value of the monotonic arrival counter.",
	})

	// LoaderProgress tracks bulk-load completion percentage, 0-100.
	LoaderProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "loader_progress_percent",
		Help:      "Percentage of the bulk mempool load completed so far.",
	})

	// UpdaterEventsTotal counts events applied by kind.
	UpdaterEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updater_events_total",
		Help:      "Number of sequence events applied by the incremental updater, by kind.",
	}, []string{"kind"})

	// UpdaterErrorsTotal counts fatal updater terminations by error kind.
	UpdaterErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updater_errors_total",
		Help:      "Number of fatal conditions observed by the incremental updater, by error kind.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(StoreSize, StoreCounter, LoaderProgress, UpdaterEventsTotal, UpdaterErrorsTotal)
}

// Handler returns the standard Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
