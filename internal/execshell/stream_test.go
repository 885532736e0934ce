package execshell_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/containerboard/internal/execshell"
)

const (
	testStreamingScriptConstant   = "echo one; echo two >&2; echo three"
	testLongRunningScriptConstant = "sleep 30"
	testCancellationGraceConstant = 10 * time.Second
)

type collectingStreamObserver struct {
	mutex               sync.Mutex
	standardOutputLines []string
	standardErrorLines  []string
}

func (observer *collectingStreamObserver) StandardOutputLine(line string) {
	observer.mutex.Lock()
	defer observer.mutex.Unlock()
	observer.standardOutputLines = append(observer.standardOutputLines, line)
}

func (observer *collectingStreamObserver) StandardErrorLine(line string) {
	observer.mutex.Lock()
	defer observer.mutex.Unlock()
	observer.standardErrorLines = append(observer.standardErrorLines, line)
}

func TestRunStreamingDeliversLinesPerStreamInOrder(testInstance *testing.T) {
	observer := &collectingStreamObserver{}
	runner := execshell.NewOSCommandRunner()

	exitCode, streamError := runner.RunStreaming(context.Background(), execshell.ShellCommand{
		Name:    execshell.CommandName(testShellExecutableNameConstant),
		Details: execshell.CommandDetails{Arguments: []string{testShellCommandFlagConstant, testStreamingScriptConstant}},
	}, observer)

	require.NoError(testInstance, streamError)
	require.Equal(testInstance, 0, exitCode)
	require.Equal(testInstance, []string{"one", "three"}, observer.standardOutputLines)
	require.Equal(testInstance, []string{"two"}, observer.standardErrorLines)
}

func TestRunStreamingRequiresObserver(testInstance *testing.T) {
	runner := execshell.NewOSCommandRunner()

	_, streamError := runner.RunStreaming(context.Background(), execshell.ShellCommand{
		Name: execshell.CommandName(testShellExecutableNameConstant),
	}, nil)

	require.ErrorIs(testInstance, streamError, execshell.ErrStreamObserverNotConfigured)
}

func TestRunStreamingTerminatesChildOnCancellation(testInstance *testing.T) {
	observer := &collectingStreamObserver{}
	runner := execshell.NewOSCommandRunner()

	executionContext, cancelExecution := context.WithCancel(context.Background())
	completionChannel := make(chan error, 1)
	go func() {
		_, streamError := runner.RunStreaming(executionContext, execshell.ShellCommand{
			Name:    execshell.CommandName(testShellExecutableNameConstant),
			Details: execshell.CommandDetails{Arguments: []string{testShellCommandFlagConstant, testLongRunningScriptConstant}},
		}, observer)
		completionChannel <- streamError
	}()

	cancelExecution()

	select {
	case streamError := <-completionChannel:
		require.ErrorIs(testInstance, streamError, context.Canceled)
	case <-time.After(testCancellationGraceConstant):
		testInstance.Fatal("streaming execution did not terminate after cancellation")
	}
}

func TestRunStreamingRejectsMissingExecutable(testInstance *testing.T) {
	observer := &collectingStreamObserver{}
	runner := execshell.NewOSCommandRunner()

	_, streamError := runner.RunStreaming(context.Background(), execshell.ShellCommand{
		Name: execshell.CommandName(testMissingExecutablePathConstant),
	}, observer)

	require.Error(testInstance, streamError)
}
