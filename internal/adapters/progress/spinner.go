package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/gatorkit/gator-cli/internal/domain"
	"github.com/gatorkit/gator-cli/internal/usecase"
)

// SpinnerSink renders user operation stages with a terminal spinner
type SpinnerSink struct {
	spinner *spinner.Spinner
	out     io.Writer
	stages  []stageInfo
}

type stageInfo struct {
	Stage     domain.OperationStage
	StartTime time.Time
	EndTime   time.Time
}

// NewSpinnerSink creates a new spinner-based progress sink
func NewSpinnerSink() *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.HideCursor = false

	return &SpinnerSink{
		spinner: s,
		out:     os.Stderr,
	}
}

// OnProgress handles progress events
func (r *SpinnerSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.track(event.Stage)

	if event.Stage == domain.StageIdle {
		r.stop()
		r.stages = nil
		return
	}

	if event.Spinner {
		r.spinner.Suffix = " " + r.display(event.Message)
		if !r.spinner.Active() {
			r.spinner.Start()
		}
		return
	}

	r.stop()
	if event.Stage == domain.StageSettled {
		fmt.Fprintln(r.out, r.display(""))
	}
}

// track closes the running stage when a new one begins
func (r *SpinnerSink) track(stage domain.OperationStage) {
	if stage == "" || stage == domain.StageIdle {
		return
	}
	if n := len(r.stages); n > 0 {
		if r.stages[n-1].Stage == stage {
			return
		}
		r.stages[n-1].EndTime = time.Now()
	}
	r.stages = append(r.stages, stageInfo{Stage: stage, StartTime: time.Now()})
}

func (r *SpinnerSink) display(message string) string {
	var display string
	for i, stage := range r.stages {
		icon, stageColor := "●", color.New(color.FgYellow)
		duration := ""
		if !stage.EndTime.IsZero() || stage.Stage == domain.StageSettled {
			icon, stageColor = "✓", color.New(color.FgGreen)
		}
		if !stage.EndTime.IsZero() {
			duration = fmt.Sprintf(" (%s)", stage.EndTime.Sub(stage.StartTime).Round(time.Millisecond))
		}

		if i > 0 {
			display += " → "
		}
		display += fmt.Sprintf("%s %s%s", icon, stageColor.Sprint(stageLabel(stage.Stage)), duration)
	}
	if message != "" {
		display += "  " + color.New(color.Faint).Sprint(message)
	}
	return display
}

func stageLabel(stage domain.OperationStage) string {
	switch stage {
	case domain.StageBuilding:
		return "Building"
	case domain.StageSubmitted:
		return "Submitted"
	case domain.StageSettled:
		return "Settled"
	default:
		return string(stage)
	}
}

func (r *SpinnerSink) stop() {
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

// Info prints an info message
func (r *SpinnerSink) Info(message string) {
	r.pause(func() {
		color.New(color.FgCyan).Fprintln(r.out, message)
	})
}

// Error prints an error message
func (r *SpinnerSink) Error(message string) {
	r.pause(func() {
		color.New(color.FgRed).Fprintln(r.out, message)
	})
}

func (r *SpinnerSink) pause(fn func()) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	fn()
	if wasActive {
		r.spinner.Start()
	}
}

var _ usecase.ProgressSink = (*SpinnerSink)(nil)
