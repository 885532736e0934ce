package environments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/containerboard/internal/execshell"
)

const (
	logSubcommandNameConstant              = "log"
	diffSubcommandNameConstant             = "diff"
	listSubcommandNameConstant             = "list"
	watchSubcommandNameConstant            = "watch"
	loggerRequiredMessageConstant          = "logger not configured"
	executorRequiredMessageConstant        = "command executor not configured"
	identifierRequiredMessageConstant      = "environment identifier required"
	unsupportedActionMessageConstant       = "unsupported environment action"
	unsupportedActionErrorTemplateConstant = "%w: %s"
	commandLabelSeparatorConstant          = " "

	listFailureMessageConstant            = "Failed to list environments"
	logsFailureMessageTemplateConstant    = "Failed to collect logs for environment %s"
	diffFailureMessageTemplateConstant    = "Failed to compute diff for environment %s"
	actionFailureMessageTemplateConstant  = "Failed to perform %s on environment %s"
	watchFailureMessageConstant           = "Environment watch failed"
	operationFailureMessageJoinerConstant = ": "
	failureCommandLogFieldConstant        = "command"
	failureNotFoundLogFieldConstant       = "not_found"
)

// Action is a container-use lifecycle operation applied to one environment.
type Action string

// Supported lifecycle actions.
const (
	ActionApply    Action = "apply"
	ActionCheckout Action = "checkout"
	ActionDelete   Action = "delete"
	ActionMerge    Action = "merge"
)

// Validation sentinel errors returned before any process spawns.
var (
	ErrServiceLoggerNotConfigured   = errors.New(loggerRequiredMessageConstant)
	ErrServiceExecutorNotConfigured = errors.New(executorRequiredMessageConstant)
	ErrEnvironmentIdentifierMissing = errors.New(identifierRequiredMessageConstant)
	ErrUnsupportedAction            = errors.New(unsupportedActionMessageConstant)
)

var notFoundDiagnosticMarkers = []string{"not found", "does not exist"}

// ParseAction validates a candidate action name.
func ParseAction(candidate string) (Action, error) {
	normalizedAction := Action(strings.ToLower(strings.TrimSpace(candidate)))
	switch normalizedAction {
	case ActionApply, ActionCheckout, ActionDelete, ActionMerge:
		return normalizedAction, nil
	default:
		return "", fmt.Errorf(unsupportedActionErrorTemplateConstant, ErrUnsupportedAction, candidate)
	}
}

// CommandExecutor abstracts the shell executor operations the service relies on.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
	ExecuteStreaming(executionContext context.Context, command execshell.ShellCommand, observer execshell.StreamObserver) (int, error)
}

// OperationFailure describes a container-use invocation that did not succeed.
//
// NotFound marks failures whose diagnostics indicate a missing environment so
// the API boundary can map them to the appropriate status.
type OperationFailure struct {
	Message          string
	Command          string
	WorkingDirectory string
	Result           *execshell.ExecutionResult
	Failure          error
	NotFound         bool
}

// Error combines the operation message with the most specific diagnostics available.
func (operationFailure *OperationFailure) Error() string {
	diagnostics := operationFailure.Diagnostics()
	if len(diagnostics) == 0 {
		return operationFailure.Message
	}
	return operationFailure.Message + operationFailureMessageJoinerConstant + diagnostics
}

// Unwrap exposes the underlying execution error.
func (operationFailure *OperationFailure) Unwrap() error {
	return operationFailure.Failure
}

// Diagnostics returns captured stderr, falling back to stdout, then to the failure text.
func (operationFailure *OperationFailure) Diagnostics() string {
	if operationFailure.Result != nil {
		trimmedStandardError := strings.TrimSpace(operationFailure.Result.StandardError)
		if len(trimmedStandardError) > 0 {
			return trimmedStandardError
		}
		trimmedStandardOutput := strings.TrimSpace(operationFailure.Result.StandardOutput)
		if len(trimmedStandardOutput) > 0 {
			return trimmedStandardOutput
		}
	}
	if operationFailure.Failure != nil {
		return operationFailure.Failure.Error()
	}
	return ""
}

// Service runs container-use operations on behalf of the HTTP layer.
type Service struct {
	logger        *zap.Logger
	executor      CommandExecutor
	configuration Configuration
}

// NewService validates dependencies and assembles a Service.
func NewService(logger *zap.Logger, executor CommandExecutor, configuration Configuration) (*Service, error) {
	if logger == nil {
		return nil, ErrServiceLoggerNotConfigured
	}
	if executor == nil {
		return nil, ErrServiceExecutorNotConfigured
	}

	environmentService := &Service{
		logger:        logger,
		executor:      executor,
		configuration: configuration.sanitized(),
	}

	return environmentService, nil
}

// List returns the environments reported by container-use list.
func (service *Service) List(executionContext context.Context) ([]Environment, error) {
	executionResult, runError := service.runContainerUse(executionContext, listSubcommandNameConstant)
	if runError != nil {
		return nil, service.classifyFailure(listFailureMessageConstant, runError, listSubcommandNameConstant)
	}
	return ParseEnvironmentTable(executionResult.StandardOutput), nil
}

// Logs returns the commit and operation log of one environment.
func (service *Service) Logs(executionContext context.Context, environmentIdentifier string) (string, error) {
	if len(strings.TrimSpace(environmentIdentifier)) == 0 {
		return "", ErrEnvironmentIdentifierMissing
	}

	executionResult, runError := service.runContainerUse(executionContext, logSubcommandNameConstant, environmentIdentifier)
	if runError != nil {
		failureMessage := fmt.Sprintf(logsFailureMessageTemplateConstant, environmentIdentifier)
		return "", service.classifyFailure(failureMessage, runError, logSubcommandNameConstant, environmentIdentifier)
	}
	return executionResult.StandardOutput, nil
}

// Diff returns the working tree diff of one environment.
func (service *Service) Diff(executionContext context.Context, environmentIdentifier string) (string, error) {
	if len(strings.TrimSpace(environmentIdentifier)) == 0 {
		return "", ErrEnvironmentIdentifierMissing
	}

	executionResult, runError := service.runContainerUse(executionContext, diffSubcommandNameConstant, environmentIdentifier)
	if runError != nil {
		failureMessage := fmt.Sprintf(diffFailureMessageTemplateConstant, environmentIdentifier)
		return "", service.classifyFailure(failureMessage, runError, diffSubcommandNameConstant, environmentIdentifier)
	}
	return executionResult.StandardOutput, nil
}

// PerformAction applies a validated lifecycle action to one environment.
func (service *Service) PerformAction(executionContext context.Context, action Action, environmentIdentifier string) (string, error) {
	validatedAction, validationError := ParseAction(string(action))
	if validationError != nil {
		return "", validationError
	}
	if len(strings.TrimSpace(environmentIdentifier)) == 0 {
		return "", ErrEnvironmentIdentifierMissing
	}

	executionResult, runError := service.runContainerUse(executionContext, string(validatedAction), environmentIdentifier)
	if runError != nil {
		failureMessage := fmt.Sprintf(actionFailureMessageTemplateConstant, validatedAction, environmentIdentifier)
		return "", service.classifyFailure(failureMessage, runError, string(validatedAction), environmentIdentifier)
	}
	return executionResult.StandardOutput, nil
}

// Watch streams container-use watch output to the observer until the context ends.
func (service *Service) Watch(executionContext context.Context, observer execshell.StreamObserver) error {
	watchCommand := service.buildCommand(watchSubcommandNameConstant)

	_, streamError := service.executor.ExecuteStreaming(executionContext, watchCommand, observer)
	if streamError != nil && !errors.Is(streamError, context.Canceled) {
		return service.classifyFailure(watchFailureMessageConstant, streamError, watchSubcommandNameConstant)
	}
	return nil
}

func (service *Service) runContainerUse(executionContext context.Context, arguments ...string) (execshell.ExecutionResult, error) {
	return service.executor.Execute(executionContext, service.buildCommand(arguments...))
}

func (service *Service) buildCommand(arguments ...string) execshell.ShellCommand {
	return execshell.ShellCommand{
		Name: execshell.CommandName(service.configuration.BinaryName),
		Details: execshell.CommandDetails{
			Arguments:        arguments,
			WorkingDirectory: service.configuration.WorkingDirectory,
			ForceColor:       true,
		},
	}
}

func (service *Service) classifyFailure(failureMessage string, runError error, arguments ...string) *OperationFailure {
	operationFailure := &OperationFailure{
		Message:          failureMessage,
		Command:          service.describeCommand(arguments...),
		WorkingDirectory: service.configuration.WorkingDirectory,
		Failure:          runError,
	}

	commandFailure := execshell.CommandFailedError{}
	if errors.As(runError, &commandFailure) {
		failedResult := commandFailure.Result
		operationFailure.Result = &failedResult
	}

	operationFailure.NotFound = containsNotFoundMarker(operationFailure.Diagnostics())

	service.logger.Warn(
		failureMessage,
		zap.String(failureCommandLogFieldConstant, operationFailure.Command),
		zap.Bool(failureNotFoundLogFieldConstant, operationFailure.NotFound),
	)

	return operationFailure
}

func (service *Service) describeCommand(arguments ...string) string {
	commandParts := append([]string{service.configuration.BinaryName}, arguments...)
	return strings.Join(commandParts, commandLabelSeparatorConstant)
}

func containsNotFoundMarker(diagnostics string) bool {
	loweredDiagnostics := strings.ToLower(diagnostics)
	for _, marker := range notFoundDiagnosticMarkers {
		if strings.Contains(loweredDiagnostics, marker) {
			return true
		}
	}
	return false
}
