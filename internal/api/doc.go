// Package api hosts the operator HTTP server of the watcher. Routes:
//   - GET /healthz and /readyz for liveness and readiness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/status for the last cycle report.
//   - POST /v1/cycles to run a cycle immediately.
package api
