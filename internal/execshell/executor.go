package execshell

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

const (
	containerUseToolNameConstant              = "container-use"
	gitToolNameConstant                       = "git"
	commandStartedLogFieldConstant            = "command"
	commandExitCodeLogFieldConstant           = "exit_code"
	commandWorkingDirectoryLogFieldConstant   = "working_directory"
	loggerNotConfiguredMessageConstant        = "logger not configured"
	commandRunnerNotConfiguredMessageConstant = "command runner not configured"
	streamingNotSupportedMessageConstant      = "command runner does not support streaming"
)

// CommandName identifies the executable a ShellCommand launches.
type CommandName string

// Known executables managed by the dashboard.
const (
	CommandContainerUse CommandName = CommandName(containerUseToolNameConstant)
	CommandGit          CommandName = CommandName(gitToolNameConstant)
)

// CommandDetails describes a single invocation of an executable.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	ForceColor           bool
	StandardInput        []byte
}

// ShellCommand combines a CommandName with invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a completed process.
//
// ExitCode is zero both for genuine zero exits and for children whose runtime
// reported no usable code; callers distinguishing the two must inspect the
// captured streams.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner represents the ability to spawn a process and await its completed result.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// StreamObserver receives output lines from a streaming execution in per-stream arrival order.
type StreamObserver interface {
	// StandardOutputLine delivers one line captured from the output stream.
	StandardOutputLine(line string)
	// StandardErrorLine delivers one line captured from the error stream.
	StandardErrorLine(line string)
}

// StreamingCommandRunner represents the ability to stream process output line by line.
type StreamingCommandRunner interface {
	RunStreaming(executionContext context.Context, command ShellCommand, observer StreamObserver) (int, error)
}

// CommandEventObserver receives lifecycle notifications for shell command execution.
type CommandEventObserver interface {
	// CommandStarted notifies observers that command execution is beginning.
	CommandStarted(command ShellCommand)
	// CommandCompleted notifies observers that command execution finished with a result.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed reports spawn-level failures that produced no result.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}

// Configuration sentinel errors surfaced by NewShellExecutor.
var (
	ErrLoggerNotConfigured        = errors.New(loggerNotConfiguredMessageConstant)
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
	ErrStreamingNotSupported      = errors.New(streamingNotSupportedMessageConstant)
)

// CommandFailedError reports a process that launched and exited with a non-zero code.
//
// The full ExecutionResult is carried so callers keep the captured streams and
// exit code when translating the failure for an API boundary.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command using the lifecycle message formatter.
func (commandFailure CommandFailedError) Error() string {
	return CommandMessageFormatter{}.BuildFailureMessage(commandFailure.Command, commandFailure.Result)
}

// CommandExecutionError reports a spawn-level failure that produced no execution result.
type CommandExecutionError struct {
	Command ShellCommand
	Failure error
}

// Error describes the spawn failure using the lifecycle message formatter.
func (executionFailure CommandExecutionError) Error() string {
	return CommandMessageFormatter{}.BuildExecutionFailureMessage(executionFailure.Command, executionFailure.Failure)
}

// Unwrap exposes the underlying spawn failure.
func (executionFailure CommandExecutionError) Unwrap() error {
	return executionFailure.Failure
}

// ShellExecutor coordinates command execution with structured logging and lifecycle events.
type ShellExecutor struct {
	logger           *zap.Logger
	commandRunner    CommandRunner
	messageFormatter CommandMessageFormatter
	eventObserver    CommandEventObserver
}

// NewShellExecutor validates dependencies and assembles a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner) (*ShellExecutor, error) {
	return NewShellExecutorWithObserver(logger, commandRunner, nil)
}

// NewShellExecutorWithObserver assembles a ShellExecutor that additionally notifies the supplied observer.
func NewShellExecutorWithObserver(logger *zap.Logger, commandRunner CommandRunner, eventObserver CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	if eventObserver == nil {
		eventObserver = noopCommandEventObserver{}
	}

	shellExecutor := &ShellExecutor{
		logger:           logger,
		commandRunner:    commandRunner,
		messageFormatter: CommandMessageFormatter{},
		eventObserver:    eventObserver,
	}

	return shellExecutor, nil
}

// Execute runs an arbitrary command and translates its outcome into typed errors.
//
// Non-zero exits return the captured ExecutionResult together with a
// CommandFailedError; spawn-level failures return CommandExecutionError and no
// result.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.eventObserver.CommandStarted(command)
	executor.logger.Info(
		executor.messageFormatter.BuildStartedMessage(command),
		zap.String(commandStartedLogFieldConstant, string(command.Name)),
		zap.String(commandWorkingDirectoryLogFieldConstant, command.Details.WorkingDirectory),
	)

	executionResult, runError := executor.commandRunner.Run(executionContext, command)
	if runError != nil {
		executor.eventObserver.CommandExecutionFailed(command, runError)
		executor.logger.Error(
			executor.messageFormatter.BuildExecutionFailureMessage(command, runError),
			zap.String(commandStartedLogFieldConstant, string(command.Name)),
		)
		return ExecutionResult{}, CommandExecutionError{Command: command, Failure: runError}
	}

	executor.eventObserver.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logger.Warn(
			executor.messageFormatter.BuildFailureMessage(command, executionResult),
			zap.String(commandStartedLogFieldConstant, string(command.Name)),
			zap.Int(commandExitCodeLogFieldConstant, executionResult.ExitCode),
		)
		return executionResult, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Info(
		executor.messageFormatter.BuildSuccessMessage(command),
		zap.String(commandStartedLogFieldConstant, string(command.Name)),
	)

	return executionResult, nil
}

// ExecuteContainerUse runs the managed container-use binary with the provided details.
func (executor *ShellExecutor) ExecuteContainerUse(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandContainerUse, Details: details})
}

// ExecuteGit runs the git client with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteStreaming runs a command delivering output lines to the observer as they arrive.
//
// The configured runner must implement StreamingCommandRunner; fake runners
// used in tests may choose not to.
func (executor *ShellExecutor) ExecuteStreaming(executionContext context.Context, command ShellCommand, observer StreamObserver) (int, error) {
	streamingRunner, supportsStreaming := executor.commandRunner.(StreamingCommandRunner)
	if !supportsStreaming {
		return 0, ErrStreamingNotSupported
	}

	executor.eventObserver.CommandStarted(command)
	executor.logger.Info(
		executor.messageFormatter.BuildStartedMessage(command),
		zap.String(commandStartedLogFieldConstant, string(command.Name)),
	)

	exitCode, streamError := streamingRunner.RunStreaming(executionContext, command, observer)
	if streamError != nil {
		executor.eventObserver.CommandExecutionFailed(command, streamError)
		executor.logger.Error(
			executor.messageFormatter.BuildExecutionFailureMessage(command, streamError),
			zap.String(commandStartedLogFieldConstant, string(command.Name)),
		)
		return exitCode, streamError
	}

	streamedResult := ExecutionResult{ExitCode: exitCode}
	executor.eventObserver.CommandCompleted(command, streamedResult)
	executor.logger.Info(
		executor.messageFormatter.BuildSuccessMessage(command),
		zap.String(commandStartedLogFieldConstant, string(command.Name)),
		zap.Int(commandExitCodeLogFieldConstant, exitCode),
	)

	return exitCode, nil
}
