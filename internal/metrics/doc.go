// Package metrics provides observability hooks for task runs, watch triggers
// and live reload.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so callers never nil-check:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	engine := flow.NewEngine(flow.WithObserver(metrics.TaskObserver(recorder)))
//
// The Prometheus implementation registers its collectors on the registry it
// is given; HTTPHandler serves that registry (the dev server mounts it at
// /metrics).
package metrics
