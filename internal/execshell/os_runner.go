package execshell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/temirov/containerboard/internal/execenv"
)

// OSCommandRunner executes commands using the operating system facilities.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run spawns the command, drains both output streams concurrently, and returns the completed result.
//
// A child that exits non-zero still yields a nil error; only spawn-level
// failures (missing binary, permission denied, invalid working directory)
// surface as errors, and those produce no ExecutionResult. A child whose exit
// code cannot be reported is normalized to exit code zero.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executable := runner.buildExecutable(executionContext, command)

	standardOutputPipe, standardOutputPipeError := executable.StdoutPipe()
	if standardOutputPipeError != nil {
		return ExecutionResult{}, standardOutputPipeError
	}
	standardErrorPipe, standardErrorPipeError := executable.StderrPipe()
	if standardErrorPipeError != nil {
		return ExecutionResult{}, standardErrorPipeError
	}

	if startError := executable.Start(); startError != nil {
		return ExecutionResult{}, startError
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer

	var streamGroup sync.WaitGroup
	streamGroup.Add(2)
	go drainStream(&standardOutputBuffer, standardOutputPipe, &streamGroup)
	go drainStream(&standardErrorBuffer, standardErrorPipe, &streamGroup)
	streamGroup.Wait()

	waitError := executable.Wait()
	if waitError != nil {
		exitError := &exec.ExitError{}
		if errors.As(waitError, &exitError) {
			return ExecutionResult{
				StandardOutput: standardOutputBuffer.String(),
				StandardError:  standardErrorBuffer.String(),
				ExitCode:       normalizeExitCode(exitError.ExitCode()),
			}, nil
		}
		return ExecutionResult{}, waitError
	}

	return ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		ExitCode:       0,
	}, nil
}

func (runner *OSCommandRunner) buildExecutable(executionContext context.Context, command ShellCommand) *exec.Cmd {
	commandArguments := append([]string{}, command.Details.Arguments...)
	executable := exec.CommandContext(executionContext, string(command.Name), commandArguments...)

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	executable.Env = execenv.Compose(os.Environ(), command.Details.EnvironmentVariables, command.Details.ForceColor)

	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	return executable
}

// drainStream appends stream bytes to the buffer in arrival order. Read errors
// are treated as end of stream so partial captures survive decoding anomalies.
func drainStream(buffer *bytes.Buffer, stream io.Reader, streamGroup *sync.WaitGroup) {
	defer streamGroup.Done()
	_, _ = io.Copy(buffer, stream)
}

// normalizeExitCode maps unreportable exit codes to zero, preserving the
// dashboard's historical "returncode or 0" contract. Failure detection for
// signal-killed children is left to callers inspecting stderr.
func normalizeExitCode(reportedExitCode int) int {
	if reportedExitCode < 0 {
		return 0
	}
	return reportedExitCode
}
