// Package server exposes the rating service over HTTP.
//
// Routes are mounted on a chi router behind request IDs, panic recovery,
// structured request logging, CORS, per-IP rate limiting, and Prometheus
// request metrics. Admin routes additionally require a bearer token and are
// disabled outright when none is configured.
//
// A Server owns a lock file next to the database so two servers never share
// one SQLite file. Start acquires the lock and begins listening; Stop drains
// in-flight requests for up to five seconds and releases the lock.
package server
