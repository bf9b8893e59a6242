package metrics

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Package-level Prometheus collectors. They are registered via Register and
// stay passive otherwise; this library exposes no network surface of its own.
var (
	regOK atomic.Bool

	Starts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pglite",
		Subsystem: "server",
		Name:      "starts_total",
		Help:      "Number of successful server starts.",
	})
	StartFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pglite",
		Subsystem: "server",
		Name:      "start_failures_total",
		Help:      "Number of failed server starts (crash or readiness timeout).",
	})
	Stops = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pglite",
		Subsystem: "server",
		Name:      "stops_total",
		Help:      "Number of stops (graceful or kill).",
	})
	Restarts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pglite",
		Subsystem: "server",
		Name:      "restarts_total",
		Help:      "Number of restarts.",
	})
	ConflictsReaped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pglite",
		Subsystem: "server",
		Name:      "conflicts_reaped_total",
		Help:      "Number of leftover launcher processes killed before start.",
	})
	SocketCleanups = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pglite",
		Subsystem: "server",
		Name:      "socket_cleanups_total",
		Help:      "Number of socket files removed during cleanup.",
	})
)

// Register registers all metrics with the provided registerer. Safe to call
// multiple times; already-registered collectors are tolerated.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{Starts, StartFailures, Stops, Restarts, ConflictsReaped, SocketCleanups}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}
