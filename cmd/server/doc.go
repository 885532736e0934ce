// Package server assembles the containerboard entrypoint: configuration
// loading, logging, metrics, the shell executor, and the HTTP API server with
// graceful shutdown.
package server
