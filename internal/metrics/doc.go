// Package metrics provides run, check and publish-step metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metric calls never need nil checks:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	publisher := publish.NewPublisher(fs, tool, recorder, logger)
//
// PrometheusRecorder registers its collectors on a caller-supplied registry.
// One-shot runs write that registry to a node exporter textfile with
// WriteTextfile; the daemon serves it through HTTPHandler.
package metrics
