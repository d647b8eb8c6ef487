// Package metrics collects Prometheus metrics for a batch and exports them
// to a node_exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Upload statuses used as label values.
const (
	StatusVerified = "verified"
	StatusFailed   = "failed"
	StatusMismatch = "mismatch"
)

// Recorder holds the metrics of one process. Each Recorder has its own
// registry so commands and tests never share state.
type Recorder struct {
	registry *prometheus.Registry

	filesEncrypted  *prometheus.CounterVec
	filesUploaded   *prometheus.CounterVec
	bytesUploaded   prometheus.Counter
	uploadDuration  prometheus.Histogram
	batchesTotal    *prometheus.CounterVec
	batchDuration   prometheus.Gauge
	lastBatchFinish prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		filesEncrypted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sealdrop_files_encrypted_total",
				Help: "Total number of encryption attempts",
			},
			[]string{"status"},
		),
		filesUploaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sealdrop_files_uploaded_total",
				Help: "Total number of uploads by verification outcome",
			},
			[]string{"status"},
		),
		bytesUploaded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sealdrop_bytes_uploaded_total",
				Help: "Total bytes written to the remote endpoint",
			},
		),
		uploadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sealdrop_upload_duration_seconds",
				Help:    "Upload and verification time per file in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		batchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sealdrop_batches_total",
				Help: "Total number of batches by final state",
			},
			[]string{"state"},
		),
		batchDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sealdrop_last_batch_duration_seconds",
				Help: "Duration of the most recent batch in seconds",
			},
		),
		lastBatchFinish: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sealdrop_last_batch_timestamp_seconds",
				Help: "Unix time the most recent batch finished",
			},
		),
	}

	r.registry.MustRegister(
		r.filesEncrypted,
		r.filesUploaded,
		r.bytesUploaded,
		r.uploadDuration,
		r.batchesTotal,
		r.batchDuration,
		r.lastBatchFinish,
	)
	return r
}

// RecordEncryption records one encryption attempt.
func (r *Recorder) RecordEncryption(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	r.filesEncrypted.WithLabelValues(status).Inc()
}

// RecordUpload records one upload. bytes is added only for completed
// transfers.
func (r *Recorder) RecordUpload(status string, bytes int64, duration time.Duration) {
	r.filesUploaded.WithLabelValues(status).Inc()
	if bytes > 0 {
		r.bytesUploaded.Add(float64(bytes))
	}
	r.uploadDuration.Observe(duration.Seconds())
}

// RecordBatch records the final state of a batch.
func (r *Recorder) RecordBatch(state string, duration time.Duration) {
	r.batchesTotal.WithLabelValues(state).Inc()
	r.batchDuration.Set(duration.Seconds())
	r.lastBatchFinish.SetToCurrentTime()
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the metrics in text exposition format. The file is
// replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
