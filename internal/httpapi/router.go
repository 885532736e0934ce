package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/temirov/containerboard/internal/apierror"
	"github.com/temirov/containerboard/internal/environments"
	"github.com/temirov/containerboard/internal/execshell"
	"github.com/temirov/containerboard/internal/metrics"
	"github.com/temirov/containerboard/internal/utils"
)

const (
	environmentsRoutePathConstant     = "/api/environments"
	environmentLogsRoutePathConstant  = "/api/environments/:id/logs"
	environmentDiffRoutePathConstant  = "/api/environments/:id/diff"
	environmentWatchRoutePathConstant = "/api/environments/watch"
	actionsRoutePathConstant          = "/api/actions"
	commandsRoutePathConstant         = "/api/commands"
	healthRoutePathConstant           = "/healthz"
	metricsRoutePathConstant          = "/metrics"

	environmentIdentifierParameterConstant = "id"
	plainTextContentTypeConstant           = "text/plain; charset=utf-8"
	healthStatusValueConstant              = "ok"
	streamedLineTerminatorConstant         = "\n"

	invalidRequestBodyMessageConstant    = "Invalid request body"
	executableRequiredMessageConstant    = "Executable is required"
	commandFailureMessageConstant        = "Command execution failed"
	internalFailureMessageConstant       = "Internal server error"
	streamingUnsupportedMessageConstant  = "Streaming is not supported by this server"
	requestLoggerFieldNameConstant       = "path"
	watchStartedLogMessageConstant       = "Watch stream opened"
	watchFinishedLogMessageConstant      = "Watch stream closed"
	routerLoggerRequiredMessageConstant  = "logger not configured"
	routerServiceRequiredMessageConstant = "environment service not configured"
	routerRunnerRequiredMessageConstant  = "command executor not configured"
)

// Router construction sentinel errors.
var (
	ErrRouterLoggerNotConfigured   = errors.New(routerLoggerRequiredMessageConstant)
	ErrRouterServiceNotConfigured  = errors.New(routerServiceRequiredMessageConstant)
	ErrRouterExecutorNotConfigured = errors.New(routerRunnerRequiredMessageConstant)
)

// EnvironmentService abstracts the environment operations served over HTTP.
type EnvironmentService interface {
	List(executionContext context.Context) ([]environments.Environment, error)
	Logs(executionContext context.Context, environmentIdentifier string) (string, error)
	Diff(executionContext context.Context, environmentIdentifier string) (string, error)
	PerformAction(executionContext context.Context, action environments.Action, environmentIdentifier string) (string, error)
	Watch(executionContext context.Context, observer execshell.StreamObserver) error
}

// CommandExecutor abstracts arbitrary command execution for the commands endpoint.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

type actionRequest struct {
	Action        string `json:"action"`
	EnvironmentID string `json:"environment_id"`
}

type actionResponse struct {
	Success       bool   `json:"success"`
	Action        string `json:"action"`
	EnvironmentID string `json:"environment_id"`
	Output        string `json:"output"`
}

type commandRequest struct {
	Executable       string            `json:"executable"`
	Arguments        []string          `json:"arguments"`
	WorkingDirectory string            `json:"working_directory"`
	Environment      map[string]string `json:"environment"`
	ForceColor       *bool             `json:"force_color"`
}

type commandResponse struct {
	Code   int    `json:"code"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Handler serves the dashboard API on a gin engine.
type Handler struct {
	logger             *zap.Logger
	environmentService EnvironmentService
	commandExecutor    CommandExecutor
}

// NewHandler validates dependencies and assembles a Handler.
func NewHandler(logger *zap.Logger, environmentService EnvironmentService, commandExecutor CommandExecutor) (*Handler, error) {
	if logger == nil {
		return nil, ErrRouterLoggerNotConfigured
	}
	if environmentService == nil {
		return nil, ErrRouterServiceNotConfigured
	}
	if commandExecutor == nil {
		return nil, ErrRouterExecutorNotConfigured
	}

	apiHandler := &Handler{
		logger:             logger,
		environmentService: environmentService,
		commandExecutor:    commandExecutor,
	}

	return apiHandler, nil
}

// NewRouter registers every API route on a fresh gin engine.
func (handler *Handler) NewRouter() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(metrics.RequestDurationMiddleware())

	engine.GET(environmentsRoutePathConstant, handler.listEnvironments)
	engine.GET(environmentLogsRoutePathConstant, handler.environmentLogs)
	engine.GET(environmentDiffRoutePathConstant, handler.environmentDiff)
	engine.GET(environmentWatchRoutePathConstant, handler.watchEnvironments)
	engine.POST(actionsRoutePathConstant, handler.performAction)
	engine.POST(commandsRoutePathConstant, handler.runCommand)
	engine.GET(healthRoutePathConstant, handler.health)
	engine.GET(metricsRoutePathConstant, gin.WrapH(promhttp.Handler()))

	return engine
}

func (handler *Handler) listEnvironments(ginContext *gin.Context) {
	listedEnvironments, listError := handler.environmentService.List(ginContext.Request.Context())
	if listError != nil {
		handler.respondWithFailure(ginContext, listError)
		return
	}
	ginContext.JSON(http.StatusOK, listedEnvironments)
}

func (handler *Handler) environmentLogs(ginContext *gin.Context) {
	environmentIdentifier := ginContext.Param(environmentIdentifierParameterConstant)

	collectedLogs, logsError := handler.environmentService.Logs(ginContext.Request.Context(), environmentIdentifier)
	if logsError != nil {
		handler.respondWithFailure(ginContext, logsError)
		return
	}
	ginContext.Data(http.StatusOK, plainTextContentTypeConstant, []byte(collectedLogs))
}

func (handler *Handler) environmentDiff(ginContext *gin.Context) {
	environmentIdentifier := ginContext.Param(environmentIdentifierParameterConstant)

	computedDiff, diffError := handler.environmentService.Diff(ginContext.Request.Context(), environmentIdentifier)
	if diffError != nil {
		handler.respondWithFailure(ginContext, diffError)
		return
	}
	ginContext.Data(http.StatusOK, plainTextContentTypeConstant, []byte(computedDiff))
}

func (handler *Handler) performAction(ginContext *gin.Context) {
	boundRequest := actionRequest{}
	if bindError := ginContext.ShouldBindJSON(&boundRequest); bindError != nil {
		ginContext.JSON(http.StatusBadRequest, apierror.Build(invalidRequestBodyMessageConstant, nil, "", "", bindError))
		return
	}

	actionOutput, actionError := handler.environmentService.PerformAction(ginContext.Request.Context(), environments.Action(boundRequest.Action), boundRequest.EnvironmentID)
	if actionError != nil {
		handler.respondWithFailure(ginContext, actionError)
		return
	}

	ginContext.JSON(http.StatusOK, actionResponse{
		Success:       true,
		Action:        boundRequest.Action,
		EnvironmentID: boundRequest.EnvironmentID,
		Output:        actionOutput,
	})
}

func (handler *Handler) runCommand(ginContext *gin.Context) {
	boundRequest := commandRequest{}
	if bindError := ginContext.ShouldBindJSON(&boundRequest); bindError != nil {
		ginContext.JSON(http.StatusBadRequest, apierror.Build(invalidRequestBodyMessageConstant, nil, "", "", bindError))
		return
	}
	if len(boundRequest.Executable) == 0 {
		ginContext.JSON(http.StatusBadRequest, apierror.Build(executableRequiredMessageConstant, nil, "", boundRequest.WorkingDirectory, nil))
		return
	}

	forceColor := true
	if boundRequest.ForceColor != nil {
		forceColor = *boundRequest.ForceColor
	}

	requestedCommand := execshell.ShellCommand{
		Name: execshell.CommandName(boundRequest.Executable),
		Details: execshell.CommandDetails{
			Arguments:            boundRequest.Arguments,
			WorkingDirectory:     boundRequest.WorkingDirectory,
			EnvironmentVariables: boundRequest.Environment,
			ForceColor:           forceColor,
		},
	}

	executionResult, executionError := handler.commandExecutor.Execute(ginContext.Request.Context(), requestedCommand)
	if executionError != nil {
		commandFailure := execshell.CommandFailedError{}
		if errors.As(executionError, &commandFailure) {
			executionResult = commandFailure.Result
		} else {
			ginContext.JSON(http.StatusInternalServerError, apierror.Build(commandFailureMessageConstant, nil, boundRequest.Executable, boundRequest.WorkingDirectory, executionError))
			return
		}
	}

	ginContext.JSON(http.StatusOK, commandResponse{
		Code:   executionResult.ExitCode,
		Stdout: executionResult.StandardOutput,
		Stderr: executionResult.StandardError,
	})
}

type streamLineWriter struct {
	writer io.Writer
}

func (lineWriter streamLineWriter) StandardOutputLine(line string) {
	_, _ = io.WriteString(lineWriter.writer, line+streamedLineTerminatorConstant)
}

func (lineWriter streamLineWriter) StandardErrorLine(line string) {
	_, _ = io.WriteString(lineWriter.writer, line+streamedLineTerminatorConstant)
}

func (handler *Handler) watchEnvironments(ginContext *gin.Context) {
	flushingWriter := utils.NewFlushingWriter(ginContext.Writer)
	if flushingWriter == nil {
		ginContext.JSON(http.StatusInternalServerError, apierror.Build(streamingUnsupportedMessageConstant, nil, "", "", nil))
		return
	}

	ginContext.Header("Content-Type", plainTextContentTypeConstant)
	ginContext.Status(http.StatusOK)

	handler.logger.Info(watchStartedLogMessageConstant, zap.String(requestLoggerFieldNameConstant, ginContext.FullPath()))

	watchError := handler.environmentService.Watch(ginContext.Request.Context(), streamLineWriter{writer: flushingWriter})
	if watchError != nil {
		handler.logger.Warn(watchError.Error(), zap.String(requestLoggerFieldNameConstant, ginContext.FullPath()))
	}

	handler.logger.Info(watchFinishedLogMessageConstant, zap.String(requestLoggerFieldNameConstant, ginContext.FullPath()))
}

func (handler *Handler) health(ginContext *gin.Context) {
	ginContext.JSON(http.StatusOK, healthResponse{Status: healthStatusValueConstant})
}

func (handler *Handler) respondWithFailure(ginContext *gin.Context, failure error) {
	if errors.Is(failure, environments.ErrEnvironmentIdentifierMissing) || errors.Is(failure, environments.ErrUnsupportedAction) {
		ginContext.JSON(http.StatusBadRequest, apierror.Build(failure.Error(), nil, "", "", failure))
		return
	}

	operationFailure := &environments.OperationFailure{}
	if errors.As(failure, &operationFailure) {
		failureStatus := http.StatusInternalServerError
		if operationFailure.NotFound {
			failureStatus = http.StatusNotFound
		}
		ginContext.JSON(failureStatus, apierror.Build(
			operationFailure.Message,
			operationFailure.Result,
			operationFailure.Command,
			operationFailure.WorkingDirectory,
			operationFailure.Failure,
		))
		return
	}

	ginContext.JSON(http.StatusInternalServerError, apierror.Build(internalFailureMessageConstant, nil, "", "", failure))
}
