// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution with concurrently drained output streams, and
// defines the abstractions containerboard uses to run container-use, git, and
// arbitrary CLIs in a testable manner.
package execshell
