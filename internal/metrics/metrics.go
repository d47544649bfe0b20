// Package metrics instruments the indexing pipeline with Prometheus
// collectors. No HTTP /metrics endpoint is exposed by the core; a
// caller that wants to serve them registers Registry.Gatherer on its
// own mux.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds the collectors the indexing and search pipeline
// updates. All fields are safe for concurrent use.
type Registry struct {
	BlobsDiscovered prometheus.Counter
	BlobsUploaded   prometheus.Counter
	BlobsConfirmed  prometheus.Counter
	UploadRetries   prometheus.Counter
	SearchRequests  prometheus.Counter
	BatchLatency    prometheus.Histogram

	Gatherer prometheus.Gatherer
}

// New constructs a Registry with its own prometheus.Registry so
// metrics from this process never collide with default-registry
// collectors elsewhere in an embedding binary.
func New() *Registry {
	reg := prometheus.NewRegistry()

	m := &Registry{
		BlobsDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codectx",
			Name:      "blobs_discovered_total",
			Help:      "Blobs yielded by the walker across all indexing passes.",
		}),
		BlobsUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codectx",
			Name:      "blobs_uploaded_total",
			Help:      "Blobs confirmed by the upload client.",
		}),
		BlobsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codectx",
			Name:      "blobs_confirmed_total",
			Help:      "Blobs merged into a project registry after a successful batch.",
		}),
		UploadRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codectx",
			Name:      "upload_batch_failures_total",
			Help:      "Upload batches that failed after exhausting retries.",
		}),
		SearchRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codectx",
			Name:      "search_requests_total",
			Help:      "search_context calls served.",
		}),
		BatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "codectx",
			Name:      "upload_batch_duration_seconds",
			Help:      "Latency of a single batch upload, including retries.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.BlobsDiscovered, m.BlobsUploaded, m.BlobsConfirmed, m.UploadRetries, m.SearchRequests, m.BatchLatency)
	m.Gatherer = reg
	return m
}
