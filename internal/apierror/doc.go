// Package apierror builds the uniform JSON error body returned by failed API
// requests, folding command diagnostics into a stable details shape.
package apierror
