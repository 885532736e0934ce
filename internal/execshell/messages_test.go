package execshell_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/containerboard/internal/execshell"
)

const (
	testMessageEnvironmentIdentifierConstant = "fancy-mallard"
	testMessageWorkingDirectoryConstant      = "/workspace/repo"
	testMessageGenericToolNameConstant       = "terraform"
)

func TestCommandMessageFormatterContainerUseMessages(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}

	testCases := []struct {
		name            string
		buildMessage    func() string
		expectedMessage string
	}{
		{
			name: "list_started",
			buildMessage: func() string {
				return formatter.BuildStartedMessage(execshell.ShellCommand{
					Name:    execshell.CommandContainerUse,
					Details: execshell.CommandDetails{Arguments: []string{"list"}},
				})
			},
			expectedMessage: "Listing environments",
		},
		{
			name: "log_started_names_environment",
			buildMessage: func() string {
				return formatter.BuildStartedMessage(execshell.ShellCommand{
					Name:    execshell.CommandContainerUse,
					Details: execshell.CommandDetails{Arguments: []string{"log", testMessageEnvironmentIdentifierConstant}},
				})
			},
			expectedMessage: "Collecting logs for environment fancy-mallard",
		},
		{
			name: "log_failure_includes_exit_code_and_diagnostics",
			buildMessage: func() string {
				return formatter.BuildFailureMessage(execshell.ShellCommand{
					Name:    execshell.CommandContainerUse,
					Details: execshell.CommandDetails{Arguments: []string{"log", testMessageEnvironmentIdentifierConstant}},
				}, execshell.ExecutionResult{ExitCode: 1, StandardError: "environment not found"})
			},
			expectedMessage: "Failed to collect logs for environment fancy-mallard (exit code 1: environment not found)",
		},
		{
			name: "apply_started_names_action_and_environment",
			buildMessage: func() string {
				return formatter.BuildStartedMessage(execshell.ShellCommand{
					Name:    execshell.CommandContainerUse,
					Details: execshell.CommandDetails{Arguments: []string{"apply", testMessageEnvironmentIdentifierConstant}},
				})
			},
			expectedMessage: "Performing apply on environment fancy-mallard",
		},
		{
			name: "merge_success_names_action_and_environment",
			buildMessage: func() string {
				return formatter.BuildSuccessMessage(execshell.ShellCommand{
					Name:    execshell.CommandContainerUse,
					Details: execshell.CommandDetails{Arguments: []string{"merge", testMessageEnvironmentIdentifierConstant}},
				})
			},
			expectedMessage: "Performed merge on environment fancy-mallard",
		},
		{
			name: "watch_execution_failure_describes_cause",
			buildMessage: func() string {
				return formatter.BuildExecutionFailureMessage(execshell.ShellCommand{
					Name:    execshell.CommandContainerUse,
					Details: execshell.CommandDetails{Arguments: []string{"watch"}},
				}, errors.New("executable file not found"))
			},
			expectedMessage: "Unable to watch environment activity: executable file not found",
		},
		{
			name: "missing_environment_argument_falls_back_to_unknown",
			buildMessage: func() string {
				return formatter.BuildStartedMessage(execshell.ShellCommand{
					Name:    execshell.CommandContainerUse,
					Details: execshell.CommandDetails{Arguments: []string{"log"}},
				})
			},
			expectedMessage: "Collecting logs for environment unknown",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedMessage, testCase.buildMessage())
		})
	}
}

func TestCommandMessageFormatterGitMessages(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}

	testCases := []struct {
		name            string
		buildMessage    func() string
		expectedMessage string
	}{
		{
			name: "status_success_names_working_directory",
			buildMessage: func() string {
				return formatter.BuildSuccessMessage(execshell.ShellCommand{
					Name:    execshell.CommandGit,
					Details: execshell.CommandDetails{Arguments: []string{"status", "--porcelain"}, WorkingDirectory: testMessageWorkingDirectoryConstant},
				})
			},
			expectedMessage: "Collected working tree status for /workspace/repo",
		},
		{
			name: "status_failure_includes_diagnostics",
			buildMessage: func() string {
				return formatter.BuildFailureMessage(execshell.ShellCommand{
					Name:    execshell.CommandGit,
					Details: execshell.CommandDetails{Arguments: []string{"status"}, WorkingDirectory: testMessageWorkingDirectoryConstant},
				}, execshell.ExecutionResult{ExitCode: 128, StandardError: "fatal: not a git repository"})
			},
			expectedMessage: "Failed to review working tree status in /workspace/repo (exit code 128: fatal: not a git repository)",
		},
		{
			name: "diff_started_without_directory_uses_default_label",
			buildMessage: func() string {
				return formatter.BuildStartedMessage(execshell.ShellCommand{
					Name:    execshell.CommandGit,
					Details: execshell.CommandDetails{Arguments: []string{"diff"}},
				})
			},
			expectedMessage: "Collecting working tree diff in current directory",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedMessage, testCase.buildMessage())
		})
	}
}

func TestCommandMessageFormatterGenericMessages(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}
	command := execshell.ShellCommand{
		Name:    execshell.CommandName(testMessageGenericToolNameConstant),
		Details: execshell.CommandDetails{Arguments: []string{"plan"}, WorkingDirectory: "/workspace/infra"},
	}

	require.Equal(testInstance, "Running terraform plan (in /workspace/infra)", formatter.BuildStartedMessage(command))
	require.Equal(testInstance, "Completed terraform plan (in /workspace/infra)", formatter.BuildSuccessMessage(command))
	require.Equal(testInstance, "terraform plan (in /workspace/infra) failed with exit code 2: drift detected", formatter.BuildFailureMessage(command, execshell.ExecutionResult{ExitCode: 2, StandardError: "drift detected"}))
	require.Equal(testInstance, "terraform plan (in /workspace/infra) failed: executable file not found", formatter.BuildExecutionFailureMessage(command, errors.New("executable file not found")))
}
