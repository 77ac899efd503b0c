// Package daemon coordinates the long-running ytbilid process.
//
// It wires configuration, queue storage, the workflow manager and the HTTP API
// into a single lifecycle with flock-based locking to prevent multiple
// instances. The daemon owns job submission (URL validation, duplicate and
// busy checks), exposes queue maintenance helpers and reports dependency
// health.
//
// Keep orchestration logic here: individual pipeline stages live in their own
// packages while the daemon focuses on startup, shutdown and the request
// surface.
package daemon
