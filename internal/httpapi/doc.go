// Package httpapi serves the dashboard API: environment listing, logs, diffs,
// lifecycle actions, arbitrary command execution, and a flushed watch stream.
package httpapi
