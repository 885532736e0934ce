// Package execenv composes child process environments from the ambient
// environment, caller overrides, and an optional terminal color overlay.
package execenv
