// Package metrics registers the Prometheus collectors for command execution
// and HTTP latency, guarded by sync.Once so repeated construction is safe.
package metrics
