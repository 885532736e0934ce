package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/containerboard/internal/environments"
	"github.com/temirov/containerboard/internal/execshell"
	"github.com/temirov/containerboard/internal/httpapi"
	"github.com/temirov/containerboard/internal/metrics"
	"github.com/temirov/containerboard/internal/utils"
)

const (
	applicationNameConstant             = "containerboard"
	applicationShortDescriptionConstant = "HTTP dashboard server for container-use environments"
	applicationLongDescriptionConstant  = "containerboard serves environment listings, logs, diffs, lifecycle actions, and command execution for container-use over an HTTP API."

	configFileFlagNameConstant     = "config"
	configFileFlagUsageConstant    = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant       = "log-level"
	logLevelFlagUsageConstant      = "Override the configured log level."
	logFormatFlagNameConstant      = "log-format"
	logFormatFlagUsageConstant     = "Override the configured log format (structured or console)."
	listenAddressFlagNameConstant  = "listen"
	listenAddressFlagUsageConstant = "Override the configured listen address."

	commonConfigurationKeyConstant         = "common"
	commonLogLevelConfigKeyConstant        = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant       = commonConfigurationKeyConstant + ".log_format"
	serverConfigurationKeyConstant         = "server"
	serverListenAddressConfigKeyConstant   = serverConfigurationKeyConstant + ".listen_address"
	defaultListenAddressConstant           = ":8787"
	environmentPrefixConstant              = "CONTAINERBOARD"
	configurationNameConstant              = "config"
	configurationTypeConstant              = "yaml"
	defaultConfigurationSearchPathConstant = "."

	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	executorCreationErrorTemplateConstant   = "unable to create shell executor: %w"
	serviceCreationErrorTemplateConstant    = "unable to create environment service: %w"
	handlerCreationErrorTemplateConstant    = "unable to create API handler: %w"
	serverFailureErrorTemplateConstant      = "server failed: %w"
	shutdownFailureErrorTemplateConstant    = "server shutdown failed: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"

	serverStartingMessageConstant = "server starting"
	serverStoppingMessageConstant = "server stopping"
	listenAddressLogFieldConstant = "listen_address"
	shutdownGracePeriodConstant   = 10 * time.Second
)

// ApplicationConfiguration describes the persisted configuration for the server entrypoint.
type ApplicationConfiguration struct {
	Common       ApplicationCommonConfiguration `mapstructure:"common"`
	Server       ApplicationServerConfiguration `mapstructure:"server"`
	Environments environments.Configuration     `mapstructure:"environments"`
}

// ApplicationCommonConfiguration stores logging configuration shared across the server.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationServerConfiguration stores HTTP listener configuration.
type ApplicationServerConfiguration struct {
	ListenAddress string `mapstructure:"listen_address"`
}

// Application wires the Cobra root command, configuration loader, structured logger, and HTTP server.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	listenAddressFlagValue string
}

// NewApplication assembles a fully wired server application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runServer(command)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.listenAddressFlagValue, listenAddressFlagNameConstant, "", listenAddressFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// DefaultConfigurationValues supplies viper defaults for every configuration section.
func DefaultConfigurationValues() map[string]any {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:      string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:     string(utils.LogFormatStructured),
		serverListenAddressConfigKeyConstant: defaultListenAddressConstant,
	}
	for configurationKey, configurationValue := range environments.DefaultConfigurationValues() {
		defaultValues[configurationKey] = configurationValue
	}
	return defaultValues
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, DefaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if persistentFlagChanged(command.PersistentFlags(), logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if persistentFlagChanged(command.PersistentFlags(), logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if persistentFlagChanged(command.PersistentFlags(), listenAddressFlagNameConstant) {
		application.configuration.Server.ListenAddress = application.listenAddressFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) runServer(command *cobra.Command) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	shellExecutor, executorCreationError := execshell.NewShellExecutorWithObserver(
		application.logger,
		execshell.NewOSCommandRunner(),
		metrics.NewRecorder(),
	)
	if executorCreationError != nil {
		return fmt.Errorf(executorCreationErrorTemplateConstant, executorCreationError)
	}

	environmentService, serviceCreationError := environments.NewService(application.logger, shellExecutor, application.configuration.Environments)
	if serviceCreationError != nil {
		return fmt.Errorf(serviceCreationErrorTemplateConstant, serviceCreationError)
	}

	apiHandler, handlerCreationError := httpapi.NewHandler(application.logger, environmentService, shellExecutor)
	if handlerCreationError != nil {
		return fmt.Errorf(handlerCreationErrorTemplateConstant, handlerCreationError)
	}

	httpServer := &http.Server{
		Addr:    application.configuration.Server.ListenAddress,
		Handler: apiHandler.NewRouter(),
	}

	signalContext, stopSignalNotifications := signal.NotifyContext(command.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignalNotifications()

	serveFailureChannel := make(chan error, 1)
	go func() {
		serveFailureChannel <- httpServer.ListenAndServe()
	}()

	application.logger.Info(
		serverStartingMessageConstant,
		zap.String(listenAddressLogFieldConstant, application.configuration.Server.ListenAddress),
	)

	select {
	case serveError := <-serveFailureChannel:
		if serveError != nil && !errors.Is(serveError, http.ErrServerClosed) {
			return fmt.Errorf(serverFailureErrorTemplateConstant, serveError)
		}
		return nil
	case <-signalContext.Done():
	}

	application.logger.Info(serverStoppingMessageConstant)

	shutdownContext, cancelShutdown := context.WithTimeout(context.Background(), shutdownGracePeriodConstant)
	defer cancelShutdown()

	if shutdownError := httpServer.Shutdown(shutdownContext); shutdownError != nil {
		return fmt.Errorf(shutdownFailureErrorTemplateConstant, shutdownError)
	}

	return nil
}

func persistentFlagChanged(flagSet *pflag.FlagSet, flagName string) bool {
	if flagSet == nil {
		return false
	}
	return flagSet.Changed(flagName)
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}
