package utils_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/containerboard/internal/utils"
)

const testFlushedPayloadConstant = "watch output line\n"

type errorFlushWriter struct {
	buffer     bytes.Buffer
	flushCount int
}

func (writer *errorFlushWriter) Write(data []byte) (int, error) {
	return writer.buffer.Write(data)
}

func (writer *errorFlushWriter) Flush() error {
	writer.flushCount++
	return nil
}

type httpStyleFlushWriter struct {
	buffer     bytes.Buffer
	flushCount int
}

func (writer *httpStyleFlushWriter) Write(data []byte) (int, error) {
	return writer.buffer.Write(data)
}

func (writer *httpStyleFlushWriter) Flush() {
	writer.flushCount++
}

func TestFlushingWriterFlushesErrorReturningFlushers(testInstance *testing.T) {
	underlyingWriter := &errorFlushWriter{}
	flushingWriter := utils.NewFlushingWriter(underlyingWriter)

	bytesWritten, writeError := flushingWriter.Write([]byte(testFlushedPayloadConstant))

	require.NoError(testInstance, writeError)
	require.Equal(testInstance, len(testFlushedPayloadConstant), bytesWritten)
	require.Equal(testInstance, testFlushedPayloadConstant, underlyingWriter.buffer.String())
	require.Equal(testInstance, 1, underlyingWriter.flushCount)
}

func TestFlushingWriterFlushesHTTPStyleFlushers(testInstance *testing.T) {
	underlyingWriter := &httpStyleFlushWriter{}
	flushingWriter := utils.NewFlushingWriter(underlyingWriter)

	_, writeError := flushingWriter.Write([]byte(testFlushedPayloadConstant))

	require.NoError(testInstance, writeError)
	require.Equal(testInstance, testFlushedPayloadConstant, underlyingWriter.buffer.String())
	require.Equal(testInstance, 1, underlyingWriter.flushCount)
}

func TestFlushingWriterDoesNotDoubleWrap(testInstance *testing.T) {
	underlyingWriter := &errorFlushWriter{}
	flushingWriter := utils.NewFlushingWriter(underlyingWriter)

	require.Same(testInstance, flushingWriter, utils.NewFlushingWriter(flushingWriter))
}

func TestFlushingWriterRejectsNilWriter(testInstance *testing.T) {
	require.Nil(testInstance, utils.NewFlushingWriter(nil))
}
