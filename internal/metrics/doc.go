// Package metrics provides build observability for nbdocs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	builder := site.NewBuilder(cfg, runner.NewExecRunner())
//	builder.WithRecorder(metrics.NewPrometheusRecorder(nil))
//
// nbdocs is a one-shot CLI, so there is no scrape endpoint. When
// build.metrics_file is configured the PrometheusRecorder registry is written
// in the Prometheus text exposition format after each build, ready for the
// node_exporter textfile collector.
package metrics
