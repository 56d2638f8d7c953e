/*
Package metrics provides Prometheus metrics and health endpoints for CrewSync.

Collectors are package-level and registered in init; the engine updates the
counters inline on its hot paths, while Collector periodically samples the
gauges (queue depth, pending updates, connected clients, sync lag, error
rate) from the engine's status API.

Server exposes /metrics, /health, /ready, /live, and /status. The health
checker tracks per-component status; engine, cache, and broker are the
critical components readiness waits on.
*/
package metrics
