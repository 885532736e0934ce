package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/temirov/containerboard/internal/execshell"
)

const (
	metricsNamespaceConstant = "containerboard"

	commandsStartedMetricNameConstant   = "commands_started_total"
	commandsStartedMetricHelpConstant   = "Commands handed to the shell executor, labelled by tool."
	commandsCompletedMetricNameConstant = "commands_completed_total"
	commandsCompletedMetricHelpConstant = "Commands that produced a terminal outcome, labelled by tool and outcome."
	requestDurationMetricNameConstant   = "http_request_duration_seconds"
	requestDurationMetricHelpConstant   = "HTTP request latency by method, route, and status."

	toolLabelNameConstant    = "tool"
	outcomeLabelNameConstant = "outcome"
	methodLabelNameConstant  = "method"
	routeLabelNameConstant   = "route"
	statusLabelNameConstant  = "status"

	outcomeSucceededLabelValueConstant  = "succeeded"
	outcomeFailedLabelValueConstant     = "failed"
	outcomeSpawnErrorLabelValueConstant = "spawn_error"
)

var (
	registerCollectorsOnce sync.Once

	commandsStartedCounter   *prometheus.CounterVec
	commandsCompletedCounter *prometheus.CounterVec
	requestDurationHistogram *prometheus.HistogramVec
)

func registerCollectors() {
	registerCollectorsOnce.Do(func() {
		commandsStartedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespaceConstant,
			Name:      commandsStartedMetricNameConstant,
			Help:      commandsStartedMetricHelpConstant,
		}, []string{toolLabelNameConstant})

		commandsCompletedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespaceConstant,
			Name:      commandsCompletedMetricNameConstant,
			Help:      commandsCompletedMetricHelpConstant,
		}, []string{toolLabelNameConstant, outcomeLabelNameConstant})

		requestDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespaceConstant,
			Name:      requestDurationMetricNameConstant,
			Help:      requestDurationMetricHelpConstant,
			Buckets:   prometheus.DefBuckets,
		}, []string{methodLabelNameConstant, routeLabelNameConstant, statusLabelNameConstant})
	})
}

// Recorder counts shell command lifecycle events.
//
// It satisfies execshell.CommandEventObserver so the executor reports every
// start and terminal outcome without knowing about Prometheus.
type Recorder struct{}

// NewRecorder registers the collectors and returns a Recorder.
func NewRecorder() *Recorder {
	registerCollectors()
	return &Recorder{}
}

// CommandStarted counts a command handed to the executor.
func (recorder *Recorder) CommandStarted(command execshell.ShellCommand) {
	commandsStartedCounter.WithLabelValues(string(command.Name)).Inc()
}

// CommandCompleted counts a command that exited, split by outcome.
func (recorder *Recorder) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	outcomeLabel := outcomeSucceededLabelValueConstant
	if result.ExitCode != 0 {
		outcomeLabel = outcomeFailedLabelValueConstant
	}
	commandsCompletedCounter.WithLabelValues(string(command.Name), outcomeLabel).Inc()
}

// CommandExecutionFailed counts a command that never produced a result.
func (recorder *Recorder) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	commandsCompletedCounter.WithLabelValues(string(command.Name), outcomeSpawnErrorLabelValueConstant).Inc()
}

// RequestDurationMiddleware observes HTTP latency per route template and status.
func RequestDurationMiddleware() gin.HandlerFunc {
	registerCollectors()

	return func(ginContext *gin.Context) {
		requestStart := time.Now()
		ginContext.Next()

		routeTemplate := ginContext.FullPath()
		if len(routeTemplate) == 0 {
			routeTemplate = ginContext.Request.URL.Path
		}

		requestDurationHistogram.WithLabelValues(
			ginContext.Request.Method,
			routeTemplate,
			strconv.Itoa(ginContext.Writer.Status()),
		).Observe(time.Since(requestStart).Seconds())
	}
}
