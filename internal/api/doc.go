// Package api exposes the operator HTTP surface. Routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus.
//   - GET /v1/activity, /v1/runs and /v1/snapshots/latest for run inspection.
//   - GET /reports/... serving generated report bundles straight from disk.
package api
