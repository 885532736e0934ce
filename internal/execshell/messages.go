package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	containerUseListSubcommandNameConstant     = "list"
	containerUseLogSubcommandNameConstant      = "log"
	containerUseDiffSubcommandNameConstant     = "diff"
	containerUseApplySubcommandNameConstant    = "apply"
	containerUseCheckoutSubcommandNameConstant = "checkout"
	containerUseDeleteSubcommandNameConstant   = "delete"
	containerUseMergeSubcommandNameConstant    = "merge"
	containerUseWatchSubcommandNameConstant    = "watch"
	containerUseTerminalSubcommandNameConstant = "terminal"
)

const (
	environmentListStartTemplateConstant                = "Listing environments"
	environmentListSuccessTemplateConstant              = "Listed environments"
	environmentListFailureTemplateConstant              = "Failed to list environments (exit code %d%s)"
	environmentListExecutionFailureTemplateConstant     = "Unable to list environments: %s"
	environmentLogStartTemplateConstant                 = "Collecting logs for environment %s"
	environmentLogSuccessTemplateConstant               = "Collected logs for environment %s"
	environmentLogFailureTemplateConstant               = "Failed to collect logs for environment %s (exit code %d%s)"
	environmentLogExecutionFailureTemplateConstant      = "Unable to collect logs for environment %s: %s"
	environmentDiffStartTemplateConstant                = "Computing diff for environment %s"
	environmentDiffSuccessTemplateConstant              = "Computed diff for environment %s"
	environmentDiffFailureTemplateConstant              = "Failed to compute diff for environment %s (exit code %d%s)"
	environmentDiffExecutionFailureTemplateConstant     = "Unable to compute diff for environment %s: %s"
	environmentActionStartTemplateConstant              = "Performing %s on environment %s"
	environmentActionSuccessTemplateConstant            = "Performed %s on environment %s"
	environmentActionFailureTemplateConstant            = "Failed to perform %s on environment %s (exit code %d%s)"
	environmentActionExecutionFailureTemplateConstant   = "Unable to perform %s on environment %s: %s"
	environmentWatchStartTemplateConstant               = "Watching environment activity"
	environmentWatchSuccessTemplateConstant             = "Stopped watching environment activity"
	environmentWatchFailureTemplateConstant             = "Environment watch ended with exit code %d%s"
	environmentWatchExecutionFailureTemplateConstant    = "Unable to watch environment activity: %s"
	environmentTerminalStartTemplateConstant            = "Opening terminal for environment %s"
	environmentTerminalSuccessTemplateConstant          = "Closed terminal for environment %s"
	environmentTerminalFailureTemplateConstant          = "Terminal for environment %s ended with exit code %d%s"
	environmentTerminalExecutionFailureTemplateConstant = "Unable to open terminal for environment %s: %s"
)

const (
	gitStatusSubcommandNameConstant = "status"
	gitDiffSubcommandNameConstant   = "diff"
	gitLogSubcommandNameConstant    = "log"
)

const (
	gitStatusStartTemplateConstant            = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant          = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant          = "Failed to review working tree status in %s (exit code %d%s)"
	gitStatusExecutionFailureTemplateConstant = "Unable to review working tree status in %s: %s"
	gitDiffStartTemplateConstant              = "Collecting working tree diff in %s"
	gitDiffSuccessTemplateConstant            = "Collected working tree diff for %s"
	gitDiffFailureTemplateConstant            = "Failed to collect working tree diff in %s (exit code %d%s)"
	gitDiffExecutionFailureTemplateConstant   = "Unable to collect working tree diff in %s: %s"
	gitLogStartTemplateConstant               = "Reading commit history in %s"
	gitLogSuccessTemplateConstant             = "Read commit history in %s"
	gitLogFailureTemplateConstant             = "Failed to read commit history in %s (exit code %d%s)"
	gitLogExecutionFailureTemplateConstant    = "Unable to read commit history in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing a spawn-level failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandContainerUse:
		return formatter.describeContainerUseMessage(command, result, failure, stage)
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeContainerUseMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	environmentIdentifier := formatter.ensureValue(formatter.argumentAtIndex(command.Details.Arguments, 1))

	switch subcommand {
	case containerUseListSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return environmentListStartTemplateConstant
		case messageStageSuccess:
			return environmentListSuccessTemplateConstant
		case messageStageFailure:
			return fmt.Sprintf(environmentListFailureTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(environmentListExecutionFailureTemplateConstant, formatter.describeFailure(failure))
		}
	case containerUseLogSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(environmentLogStartTemplateConstant, environmentIdentifier)
		case messageStageSuccess:
			return fmt.Sprintf(environmentLogSuccessTemplateConstant, environmentIdentifier)
		case messageStageFailure:
			return fmt.Sprintf(environmentLogFailureTemplateConstant, environmentIdentifier, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(environmentLogExecutionFailureTemplateConstant, environmentIdentifier, formatter.describeFailure(failure))
		}
	case containerUseDiffSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(environmentDiffStartTemplateConstant, environmentIdentifier)
		case messageStageSuccess:
			return fmt.Sprintf(environmentDiffSuccessTemplateConstant, environmentIdentifier)
		case messageStageFailure:
			return fmt.Sprintf(environmentDiffFailureTemplateConstant, environmentIdentifier, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(environmentDiffExecutionFailureTemplateConstant, environmentIdentifier, formatter.describeFailure(failure))
		}
	case containerUseApplySubcommandNameConstant, containerUseCheckoutSubcommandNameConstant, containerUseDeleteSubcommandNameConstant, containerUseMergeSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(environmentActionStartTemplateConstant, subcommand, environmentIdentifier)
		case messageStageSuccess:
			return fmt.Sprintf(environmentActionSuccessTemplateConstant, subcommand, environmentIdentifier)
		case messageStageFailure:
			return fmt.Sprintf(environmentActionFailureTemplateConstant, subcommand, environmentIdentifier, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(environmentActionExecutionFailureTemplateConstant, subcommand, environmentIdentifier, formatter.describeFailure(failure))
		}
	case containerUseWatchSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return environmentWatchStartTemplateConstant
		case messageStageSuccess:
			return environmentWatchSuccessTemplateConstant
		case messageStageFailure:
			return fmt.Sprintf(environmentWatchFailureTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(environmentWatchExecutionFailureTemplateConstant, formatter.describeFailure(failure))
		}
	case containerUseTerminalSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(environmentTerminalStartTemplateConstant, environmentIdentifier)
		case messageStageSuccess:
			return fmt.Sprintf(environmentTerminalSuccessTemplateConstant, environmentIdentifier)
		case messageStageFailure:
			return fmt.Sprintf(environmentTerminalFailureTemplateConstant, environmentIdentifier, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(environmentTerminalExecutionFailureTemplateConstant, environmentIdentifier, formatter.describeFailure(failure))
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	workingDirectory := formatter.describeWorkingDirectory(command)

	switch strings.TrimSpace(command.Details.Arguments[0]) {
	case gitStatusSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitStatusStartTemplateConstant, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitStatusSuccessTemplateConstant, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitStatusFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitStatusExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
		}
	case gitDiffSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitDiffStartTemplateConstant, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitDiffSuccessTemplateConstant, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitDiffFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitDiffExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
		}
	case gitLogSubcommandNameConstant:
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitLogStartTemplateConstant, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitLogSuccessTemplateConstant, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitLogFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitLogExecutionFailureTemplateConstant, workingDirectory, formatter.describeFailure(failure))
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return arguments[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}
