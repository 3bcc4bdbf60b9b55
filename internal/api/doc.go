// Package api implements the HTTP REST API for the Tinxy bridge.
//
// This package provides:
//   - REST endpoints for device listing, state reads, and commands
//   - Snapshot refresh and inventory sync triggers
//   - State history reads backed by SQLite
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The API server sits between host platforms (or curl) and the device
// registry + status synchronizer. Commands flow through the cloud client
// to the vendor backend; reads are served from the in-memory snapshot so
// they never block on the cloud.
//
// # Graceful Degradation
//
// The server operates without the history repository: history reads
// return 503 while everything else keeps working. This enables partial
// operation and simpler tests.
package api
