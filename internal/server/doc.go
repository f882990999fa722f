// Package server runs the bridge's HTTP listener.
//
// One listener carries every HTTP surface of the bridge:
//
//	GET /metrics   Prometheus exposition (when metrics are enabled)
//	GET /ws        live snapshot feed over WebSocket (when the feed is enabled)
//	GET /healthz   liveness; reports the time of the last completed poll
//
// Paths come from the metrics and stream sections of the config file.
//
// # Shutdown
//
// Start blocks until its context is cancelled, then stops accepting
// connections and waits up to ShutdownTimeout for in-flight requests.
// Hijacked WebSocket connections are not tracked by net/http; close the
// feed hub before or after Start returns to disconnect them.
package server
