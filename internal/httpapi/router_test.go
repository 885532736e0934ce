package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/containerboard/internal/environments"
	"github.com/temirov/containerboard/internal/execshell"
	"github.com/temirov/containerboard/internal/httpapi"
)

const (
	testEnvironmentIdentifierConstant = "fancy-mallard"
	testLogOutputConstant             = "abc123 initial commit\n"
	testDiffOutputConstant            = "diff --git a/main.go b/main.go\n"
	testActionOutputConstant          = "applied"
	testNotFoundMessageConstant       = "Failed to collect logs for environment missing-env"
	testCommandStdoutConstant         = "On branch main\n"
	testCommandStderrConstant         = "warning: something\n"
)

type stubEnvironmentService struct {
	listedEnvironments []environments.Environment
	logsOutput         string
	diffOutput         string
	actionOutput       string
	watchLines         []string
	failure            error
	recordedAction     environments.Action
	recordedIdentifier string
}

func (service *stubEnvironmentService) List(executionContext context.Context) ([]environments.Environment, error) {
	if service.failure != nil {
		return nil, service.failure
	}
	return service.listedEnvironments, nil
}

func (service *stubEnvironmentService) Logs(executionContext context.Context, environmentIdentifier string) (string, error) {
	service.recordedIdentifier = environmentIdentifier
	if service.failure != nil {
		return "", service.failure
	}
	return service.logsOutput, nil
}

func (service *stubEnvironmentService) Diff(executionContext context.Context, environmentIdentifier string) (string, error) {
	service.recordedIdentifier = environmentIdentifier
	if service.failure != nil {
		return "", service.failure
	}
	return service.diffOutput, nil
}

func (service *stubEnvironmentService) PerformAction(executionContext context.Context, action environments.Action, environmentIdentifier string) (string, error) {
	service.recordedAction = action
	service.recordedIdentifier = environmentIdentifier
	if service.failure != nil {
		return "", service.failure
	}
	return service.actionOutput, nil
}

func (service *stubEnvironmentService) Watch(executionContext context.Context, observer execshell.StreamObserver) error {
	for _, watchLine := range service.watchLines {
		observer.StandardOutputLine(watchLine)
	}
	return service.failure
}

type stubCommandExecutor struct {
	executionResult execshell.ExecutionResult
	executionError  error
	recordedCommand execshell.ShellCommand
}

func (executor *stubCommandExecutor) Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.recordedCommand = command
	return executor.executionResult, executor.executionError
}

func newTestRouter(testInstance *testing.T, service *stubEnvironmentService, executor *stubCommandExecutor) *gin.Engine {
	testInstance.Helper()

	gin.SetMode(gin.TestMode)
	apiHandler, creationError := httpapi.NewHandler(zap.NewNop(), service, executor)
	require.NoError(testInstance, creationError)
	return apiHandler.NewRouter()
}

func performJSONRequest(testInstance *testing.T, engine *gin.Engine, method string, path string, body any) *httptest.ResponseRecorder {
	testInstance.Helper()

	var requestBody *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		encodedBody, encodeError := json.Marshal(body)
		require.NoError(testInstance, encodeError)
		requestBody = bytes.NewBuffer(encodedBody)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(method, path, requestBody)
	engine.ServeHTTP(recorder, request)
	return recorder
}

func TestNewHandlerValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		service       httpapi.EnvironmentService
		executor      httpapi.CommandExecutor
		expectedError error
	}{
		{
			name:          "missing_logger_rejected",
			logger:        nil,
			service:       &stubEnvironmentService{},
			executor:      &stubCommandExecutor{},
			expectedError: httpapi.ErrRouterLoggerNotConfigured,
		},
		{
			name:          "missing_service_rejected",
			logger:        zap.NewNop(),
			service:       nil,
			executor:      &stubCommandExecutor{},
			expectedError: httpapi.ErrRouterServiceNotConfigured,
		},
		{
			name:          "missing_executor_rejected",
			logger:        zap.NewNop(),
			service:       &stubEnvironmentService{},
			executor:      nil,
			expectedError: httpapi.ErrRouterExecutorNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			apiHandler, creationError := httpapi.NewHandler(testCase.logger, testCase.service, testCase.executor)
			require.Nil(testInstance, apiHandler)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}
}

func TestListEnvironmentsReturnsParsedEnvironments(testInstance *testing.T) {
	service := &stubEnvironmentService{
		listedEnvironments: []environments.Environment{
			{ID: testEnvironmentIdentifierConstant, Title: "Refactor auth module", Created: "2 hours ago", Updated: "5 minutes ago"},
		},
	}
	engine := newTestRouter(testInstance, service, &stubCommandExecutor{})

	recorder := performJSONRequest(testInstance, engine, http.MethodGet, "/api/environments", nil)

	require.Equal(testInstance, http.StatusOK, recorder.Code)
	listedEnvironments := []environments.Environment{}
	require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), &listedEnvironments))
	require.Equal(testInstance, service.listedEnvironments, listedEnvironments)
}

func TestEnvironmentLogsAndDiffReturnPlainText(testInstance *testing.T) {
	service := &stubEnvironmentService{logsOutput: testLogOutputConstant, diffOutput: testDiffOutputConstant}
	engine := newTestRouter(testInstance, service, &stubCommandExecutor{})

	logsRecorder := performJSONRequest(testInstance, engine, http.MethodGet, "/api/environments/"+testEnvironmentIdentifierConstant+"/logs", nil)
	require.Equal(testInstance, http.StatusOK, logsRecorder.Code)
	require.Equal(testInstance, testLogOutputConstant, logsRecorder.Body.String())
	require.Equal(testInstance, testEnvironmentIdentifierConstant, service.recordedIdentifier)

	diffRecorder := performJSONRequest(testInstance, engine, http.MethodGet, "/api/environments/"+testEnvironmentIdentifierConstant+"/diff", nil)
	require.Equal(testInstance, http.StatusOK, diffRecorder.Code)
	require.Equal(testInstance, testDiffOutputConstant, diffRecorder.Body.String())
}

func TestPerformActionStatusMapping(testInstance *testing.T) {
	testCases := []struct {
		name           string
		serviceFailure error
		requestBody    any
		expectedStatus int
	}{
		{
			name:           "valid_action_succeeds",
			requestBody:    map[string]string{"action": "apply", "environment_id": testEnvironmentIdentifierConstant},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unsupported_action_maps_to_bad_request",
			serviceFailure: environments.ErrUnsupportedAction,
			requestBody:    map[string]string{"action": "destroy", "environment_id": testEnvironmentIdentifierConstant},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing_identifier_maps_to_bad_request",
			serviceFailure: environments.ErrEnvironmentIdentifierMissing,
			requestBody:    map[string]string{"action": "apply"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "not_found_failure_maps_to_not_found",
			serviceFailure: &environments.OperationFailure{
				Message:  testNotFoundMessageConstant,
				NotFound: true,
			},
			requestBody:    map[string]string{"action": "apply", "environment_id": "missing-env"},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "generic_failure_maps_to_internal_error",
			serviceFailure: &environments.OperationFailure{
				Message: "Failed to perform apply on environment fancy-mallard",
			},
			requestBody:    map[string]string{"action": "apply", "environment_id": testEnvironmentIdentifierConstant},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			service := &stubEnvironmentService{actionOutput: testActionOutputConstant, failure: testCase.serviceFailure}
			engine := newTestRouter(testInstance, service, &stubCommandExecutor{})

			recorder := performJSONRequest(testInstance, engine, http.MethodPost, "/api/actions", testCase.requestBody)

			require.Equal(testInstance, testCase.expectedStatus, recorder.Code)
			if testCase.expectedStatus == http.StatusOK {
				decodedResponse := map[string]any{}
				require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), &decodedResponse))
				require.Equal(testInstance, true, decodedResponse["success"])
				require.Equal(testInstance, testActionOutputConstant, decodedResponse["output"])
			} else {
				decodedResponse := map[string]any{}
				require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), &decodedResponse))
				require.Contains(testInstance, decodedResponse, "error")
				require.Contains(testInstance, decodedResponse, "details")
			}
		})
	}
}

func TestNotFoundFailureBodyCarriesDiagnostics(testInstance *testing.T) {
	service := &stubEnvironmentService{
		failure: &environments.OperationFailure{
			Message:          testNotFoundMessageConstant,
			Command:          "container-use log missing-env",
			WorkingDirectory: "/workspace/project",
			Result:           &execshell.ExecutionResult{ExitCode: 1, StandardError: "environment missing-env not found"},
			NotFound:         true,
		},
	}
	engine := newTestRouter(testInstance, service, &stubCommandExecutor{})

	recorder := performJSONRequest(testInstance, engine, http.MethodGet, "/api/environments/missing-env/logs", nil)

	require.Equal(testInstance, http.StatusNotFound, recorder.Code)
	decodedResponse := struct {
		Message string `json:"error"`
		Details struct {
			ExitCode         int    `json:"exitCode"`
			StandardError    string `json:"stderr"`
			Command          string `json:"command"`
			WorkingDirectory string `json:"cwd"`
		} `json:"details"`
	}{}
	require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), &decodedResponse))
	require.Equal(testInstance, testNotFoundMessageConstant, decodedResponse.Message)
	require.Equal(testInstance, 1, decodedResponse.Details.ExitCode)
	require.Equal(testInstance, "environment missing-env not found", decodedResponse.Details.StandardError)
	require.Equal(testInstance, "container-use log missing-env", decodedResponse.Details.Command)
	require.Equal(testInstance, "/workspace/project", decodedResponse.Details.WorkingDirectory)
}

func TestRunCommandBehavior(testInstance *testing.T) {
	testCases := []struct {
		name            string
		requestBody     any
		executionResult execshell.ExecutionResult
		executionError  error
		expectedStatus  int
		expectedCode    int
	}{
		{
			name:            "successful_command_returns_result",
			requestBody:     map[string]any{"executable": "git", "arguments": []string{"status"}},
			executionResult: execshell.ExecutionResult{StandardOutput: testCommandStdoutConstant},
			expectedStatus:  http.StatusOK,
			expectedCode:    0,
		},
		{
			name:        "non_zero_exit_still_returns_result",
			requestBody: map[string]any{"executable": "git", "arguments": []string{"status"}},
			executionError: execshell.CommandFailedError{
				Result: execshell.ExecutionResult{ExitCode: 128, StandardError: testCommandStderrConstant},
			},
			expectedStatus: http.StatusOK,
			expectedCode:   128,
		},
		{
			name:           "missing_executable_rejected",
			requestBody:    map[string]any{"arguments": []string{"status"}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "spawn_failure_maps_to_internal_error",
			requestBody: map[string]any{"executable": "/does/not/exist"},
			executionError: execshell.CommandExecutionError{
				Command: execshell.ShellCommand{Name: execshell.CommandName("/does/not/exist")},
				Failure: context.DeadlineExceeded,
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubCommandExecutor{executionResult: testCase.executionResult, executionError: testCase.executionError}
			engine := newTestRouter(testInstance, &stubEnvironmentService{}, executor)

			recorder := performJSONRequest(testInstance, engine, http.MethodPost, "/api/commands", testCase.requestBody)

			require.Equal(testInstance, testCase.expectedStatus, recorder.Code)
			if testCase.expectedStatus == http.StatusOK {
				decodedResponse := struct {
					Code   int    `json:"code"`
					Stdout string `json:"stdout"`
					Stderr string `json:"stderr"`
				}{}
				require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), &decodedResponse))
				require.Equal(testInstance, testCase.expectedCode, decodedResponse.Code)
			}
		})
	}
}

func TestRunCommandDefaultsForceColor(testInstance *testing.T) {
	executor := &stubCommandExecutor{}
	engine := newTestRouter(testInstance, &stubEnvironmentService{}, executor)

	recorder := performJSONRequest(testInstance, engine, http.MethodPost, "/api/commands", map[string]any{"executable": "git"})

	require.Equal(testInstance, http.StatusOK, recorder.Code)
	require.True(testInstance, executor.recordedCommand.Details.ForceColor)

	disabledColor := false
	_ = performJSONRequest(testInstance, engine, http.MethodPost, "/api/commands", map[string]any{"executable": "git", "force_color": disabledColor})
	require.False(testInstance, executor.recordedCommand.Details.ForceColor)
}

func TestWatchEnvironmentsStreamsLines(testInstance *testing.T) {
	service := &stubEnvironmentService{watchLines: []string{"env created", "env updated"}}
	engine := newTestRouter(testInstance, service, &stubCommandExecutor{})

	recorder := performJSONRequest(testInstance, engine, http.MethodGet, "/api/environments/watch", nil)

	require.Equal(testInstance, http.StatusOK, recorder.Code)
	require.Equal(testInstance, "env created\nenv updated\n", recorder.Body.String())
}

func TestHealthEndpointReportsOK(testInstance *testing.T) {
	engine := newTestRouter(testInstance, &stubEnvironmentService{}, &stubCommandExecutor{})

	recorder := performJSONRequest(testInstance, engine, http.MethodGet, "/healthz", nil)

	require.Equal(testInstance, http.StatusOK, recorder.Code)
	require.JSONEq(testInstance, `{"status":"ok"}`, recorder.Body.String())
}

func TestMetricsEndpointServesPrometheusText(testInstance *testing.T) {
	engine := newTestRouter(testInstance, &stubEnvironmentService{}, &stubCommandExecutor{})

	recorder := performJSONRequest(testInstance, engine, http.MethodGet, "/metrics", nil)

	require.Equal(testInstance, http.StatusOK, recorder.Code)
	require.Contains(testInstance, recorder.Body.String(), "go_goroutines")
}
