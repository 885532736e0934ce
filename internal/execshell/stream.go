package execshell

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

const (
	streamObserverRequiredMessageConstant = "stream observer not configured"
	terminationGracePeriodConstant        = 5 * time.Second
)

// ErrStreamObserverNotConfigured reports a streaming execution requested without an observer.
var ErrStreamObserverNotConfigured = errors.New(streamObserverRequiredMessageConstant)

// RunStreaming spawns the command and delivers output lines to the observer as they arrive.
//
// Each stream is read by its own goroutine so neither can stall the other;
// delivery order is guaranteed per stream only. When the context is cancelled
// before the child exits, the child receives SIGTERM and, after a five second
// grace period, SIGKILL. The returned exit code follows the same normalization
// as Run; a cancelled execution returns the context's error.
func (runner *OSCommandRunner) RunStreaming(executionContext context.Context, command ShellCommand, observer StreamObserver) (int, error) {
	if observer == nil {
		return 0, ErrStreamObserverNotConfigured
	}

	executable := runner.buildExecutable(context.Background(), command)

	standardOutputPipe, standardOutputPipeError := executable.StdoutPipe()
	if standardOutputPipeError != nil {
		return 0, standardOutputPipeError
	}
	standardErrorPipe, standardErrorPipeError := executable.StderrPipe()
	if standardErrorPipeError != nil {
		return 0, standardErrorPipeError
	}

	if startError := executable.Start(); startError != nil {
		return 0, startError
	}

	var streamGroup sync.WaitGroup
	streamGroup.Add(2)
	go deliverStreamLines(standardOutputPipe, observer.StandardOutputLine, &streamGroup)
	go deliverStreamLines(standardErrorPipe, observer.StandardErrorLine, &streamGroup)

	completionChannel := make(chan error, 1)
	go func() {
		streamGroup.Wait()
		completionChannel <- executable.Wait()
	}()

	select {
	case waitError := <-completionChannel:
		return resolveStreamedExitCode(waitError)
	case <-executionContext.Done():
		terminateWithEscalation(executable, completionChannel)
		return 0, executionContext.Err()
	}
}

func deliverStreamLines(stream io.Reader, deliver func(line string), streamGroup *sync.WaitGroup) {
	defer streamGroup.Done()
	lineScanner := bufio.NewScanner(stream)
	for lineScanner.Scan() {
		deliver(lineScanner.Text())
	}
}

func resolveStreamedExitCode(waitError error) (int, error) {
	if waitError == nil {
		return 0, nil
	}
	exitError := &exec.ExitError{}
	if errors.As(waitError, &exitError) {
		return normalizeExitCode(exitError.ExitCode()), nil
	}
	return 0, waitError
}

// terminateWithEscalation asks the child to exit and forces the issue when it
// ignores the request past the grace period.
func terminateWithEscalation(executable *exec.Cmd, completionChannel <-chan error) {
	if executable.Process == nil {
		return
	}

	_ = executable.Process.Signal(syscall.SIGTERM)

	gracePeriodTimer := time.NewTimer(terminationGracePeriodConstant)
	defer gracePeriodTimer.Stop()

	select {
	case <-completionChannel:
	case <-gracePeriodTimer.C:
		_ = executable.Process.Kill()
		<-completionChannel
	}
}
