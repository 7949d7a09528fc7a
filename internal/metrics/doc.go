// Package metrics records build metrics.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so call sites never check for nil:
//
//	orch := pipeline.New(cfg, pipeline.WithRecorder(metrics.NewPrometheusRecorder(nil)))
//
// Builds are short-lived, so the Prometheus values are exported through
// WriteTextfile for the node exporter textfile collector rather than
// served over HTTP.
package metrics
