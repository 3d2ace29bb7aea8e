package progress

import (
	"context"
	"fmt"
	"io"

	"github.com/gatorkit/gator-cli/internal/usecase"
)

// NopSink is a no-op implementation of ProgressSink
type NopSink struct{}

// NewNopSink creates a new no-op progress sink
func NewNopSink() *NopSink {
	return &NopSink{}
}

// OnProgress does nothing with progress events
func (n *NopSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {}

// Info does nothing with info messages
func (n *NopSink) Info(message string) {}

// Error does nothing with error messages
func (n *NopSink) Error(message string) {}

// LineSink writes stage changes and messages as plain lines, for non-interactive output
type LineSink struct {
	out  io.Writer
	last string
}

// NewLineSink creates a sink writing to out
func NewLineSink(out io.Writer) *LineSink {
	return &LineSink{out: out}
}

// OnProgress prints each stage once
func (l *LineSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	stage := string(event.Stage)
	if stage == "" || stage == l.last {
		return
	}
	l.last = stage
	if event.Message != "" {
		fmt.Fprintf(l.out, "[%s] %s\n", stage, event.Message)
		return
	}
	fmt.Fprintf(l.out, "[%s]\n", stage)
}

// Info prints an info message
func (l *LineSink) Info(message string) {
	fmt.Fprintln(l.out, message)
}

// Error prints an error message
func (l *LineSink) Error(message string) {
	fmt.Fprintln(l.out, "error: "+message)
}

var (
	_ usecase.ProgressSink = (*NopSink)(nil)
	_ usecase.ProgressSink = (*LineSink)(nil)
)
