package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "horizon_events_applied_total",
		Help: "Stream events applied by the reconciler, by outcome.",
	}, []string{"outcome"})

	SnapshotFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "horizon_snapshot_failures_total",
		Help: "Room snapshots that could not be loaded.",
	})

	ReceiptsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "horizon_receipts_processed_total",
		Help: "Read-receipt queue items, by result.",
	}, []string{"result"})

	DraftWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "horizon_draft_writes_total",
		Help: "Draft values written to disk.",
	})

	WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "horizon_ws_clients",
		Help: "Connected local UI clients.",
	})
)

var (
	depthMu sync.Mutex
	depthFn func() int
)

func init() {
	queueDepth := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "horizon_receipt_queue_depth",
		Help: "Messages waiting to be marked read.",
	}, func() float64 {
		depthMu.Lock()
		defer depthMu.Unlock()
		if depthFn == nil {
			return 0
		}
		return float64(depthFn())
	})
	prometheus.MustRegister(EventsApplied, SnapshotFailures, ReceiptsProcessed, DraftWrites, WSClients, queueDepth)
}

// TrackQueueDepth points the queue depth gauge at fn.
func TrackQueueDepth(fn func() int) {
	depthMu.Lock()
	depthFn = fn
	depthMu.Unlock()
}
