package apierror

import (
	"github.com/temirov/containerboard/internal/execshell"
)

const (
	unknownFailureDetailConstant  = "Unknown error"
	missingResultExitCodeConstant = -1
)

// ErrorDetails carries the diagnostic payload attached to an error response.
type ErrorDetails struct {
	ExitCode         int    `json:"exitCode"`
	StandardError    string `json:"stderr"`
	Command          string `json:"command"`
	WorkingDirectory string `json:"cwd"`
}

// ErrorResponse is the JSON body returned for every failed API request.
type ErrorResponse struct {
	Message string       `json:"error"`
	Details ErrorDetails `json:"details"`
}

// Build assembles an ErrorResponse from whatever outcome a command produced.
// A nil result marks the exit code as unreportable; the stderr detail prefers
// captured diagnostics over the failure text and never ends up empty.
func Build(message string, result *execshell.ExecutionResult, command string, workingDirectory string, failure error) ErrorResponse {
	exitCode := missingResultExitCodeConstant
	if result != nil {
		exitCode = result.ExitCode
	}

	return ErrorResponse{
		Message: message,
		Details: ErrorDetails{
			ExitCode:         exitCode,
			StandardError:    resolveStandardErrorDetail(result, failure),
			Command:          command,
			WorkingDirectory: workingDirectory,
		},
	}
}

func resolveStandardErrorDetail(result *execshell.ExecutionResult, failure error) string {
	if result != nil && len(result.StandardError) > 0 {
		return result.StandardError
	}
	if failure != nil {
		return failure.Error()
	}
	return unknownFailureDetailConstant
}
