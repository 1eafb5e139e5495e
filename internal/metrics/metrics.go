package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	TaskEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gdrive",
			Name:      "task_events_total",
			Help:      "Count of task lifecycle events processed by the reconciler.",
		},
		[]string{"type"},
	)

	DriveHTTPErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gdrive",
			Name:      "drive_http_errors_total",
			Help:      "Transport errors talking to the drive service.",
		},
		[]string{"endpoint"},
	)

	DriveHTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gdrive",
			Name:      "drive_http_latency_seconds",
			Help:      "Latency of requests to the drive service.",
		},
		[]string{"endpoint"},
	)

	ActiveTransfers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gdrive",
			Name:      "active_transfers",
			Help:      "Number of transfers currently streaming to disk.",
		},
	)

	TransferBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gdrive",
			Name:      "transfer_bytes_total",
			Help:      "Total bytes written to disk by the transfer engine.",
		},
	)
)

var registerOnce sync.Once

// Register registers the collectors into the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(TaskEvents, DriveHTTPErrors, DriveHTTPLatency, ActiveTransfers, TransferBytes)
	})
}
