package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(TaskEvents, DriveHTTPErrors, DriveHTTPLatency, ActiveTransfers, TransferBytes)

	TaskEvents.WithLabelValues("start").Inc()
	DriveHTTPErrors.WithLabelValues("export").Add(2)
	ActiveTransfers.Set(3)
	TransferBytes.Add(1024)

	// Histogram: observe one sample to ensure collector is live
	DriveHTTPLatency.WithLabelValues("export").Observe(0.05)

	expectedEvents := `# HELP gdrive_task_events_total Count of task lifecycle events processed by the reconciler.
# TYPE gdrive_task_events_total counter
gdrive_task_events_total{type="start"} 1
`
	if err := testutil.CollectAndCompare(TaskEvents, strings.NewReader(expectedEvents)); err != nil {
		t.Fatalf("unexpected events metric: %v", err)
	}

	expectedErrors := `# HELP gdrive_drive_http_errors_total Transport errors talking to the drive service.
# TYPE gdrive_drive_http_errors_total counter
gdrive_drive_http_errors_total{endpoint="export"} 2
`
	if err := testutil.CollectAndCompare(DriveHTTPErrors, strings.NewReader(expectedErrors)); err != nil {
		t.Fatalf("unexpected drive errors metric: %v", err)
	}

	expectedGauge := `# HELP gdrive_active_transfers Number of transfers currently streaming to disk.
# TYPE gdrive_active_transfers gauge
gdrive_active_transfers 3
`
	if err := testutil.CollectAndCompare(ActiveTransfers, strings.NewReader(expectedGauge)); err != nil {
		t.Fatalf("unexpected active transfers gauge: %v", err)
	}

	expectedBytes := `# HELP gdrive_transfer_bytes_total Total bytes written to disk by the transfer engine.
# TYPE gdrive_transfer_bytes_total counter
gdrive_transfer_bytes_total 1024
`
	if err := testutil.CollectAndCompare(TransferBytes, strings.NewReader(expectedBytes)); err != nil {
		t.Fatalf("unexpected transfer bytes metric: %v", err)
	}
}

func TestDriveLatencyHistogram(t *testing.T) {
	// Use a fresh histogram to avoid cross-test contamination
	DriveHTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gdrive",
			Name:      "drive_http_latency_seconds",
			Help:      "Latency of requests to the drive service.",
		},
		[]string{"endpoint"},
	)

	DriveHTTPLatency.WithLabelValues("probe").Observe(0.03)
	DriveHTTPLatency.WithLabelValues("probe").Observe(0.6)

	expected := `# HELP gdrive_drive_http_latency_seconds Latency of requests to the drive service.
# TYPE gdrive_drive_http_latency_seconds histogram
gdrive_drive_http_latency_seconds_bucket{endpoint="probe",le="0.005"} 0
gdrive_drive_http_latency_seconds_bucket{endpoint="probe",le="0.01"} 0
gdrive_drive_http_latency_seconds_bucket{endpoint="probe",le="0.025"} 0
gdrive_drive_http_latency_seconds_bucket{endpoint="probe",le="0.05"} 1
gdrive_drive_http_latency_seconds_bucket{endpoint="probe",le="0.1"} 1
gdrive_drive_http_latency_seconds_bucket{endpoint="probe",le="0.25"} 1
gdrive_drive_http_latency_seconds_bucket{endpoint="probe",le="0.5"} 1
gdrive_drive_http_latency_seconds_bucket{endpoint="probe",le="1"} 2
gdrive_drive_http_latency_seconds_bucket{endpoint="probe",le="2.5"} 2
gdrive_drive_http_latency_seconds_bucket{endpoint="probe",le="5"} 2
gdrive_drive_http_latency_seconds_bucket{endpoint="probe",le="10"} 2
gdrive_drive_http_latency_seconds_bucket{endpoint="probe",le="+Inf"} 2
gdrive_drive_http_latency_seconds_sum{endpoint="probe"} 0.63
gdrive_drive_http_latency_seconds_count{endpoint="probe"} 2
`
	if err := testutil.CollectAndCompare(DriveHTTPLatency, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected histogram: %v", err)
	}
}
