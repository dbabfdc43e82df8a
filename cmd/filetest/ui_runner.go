package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"filetest/internal/harness"
	"filetest/internal/pool"
	"filetest/internal/ui"
)

type harnessOutcome struct {
	summary harness.Summary
	err     error
}

// runHarnessWithUI drives the harness on a goroutine and renders its events
// with the progress model. The harness error wins over a UI error.
func runHarnessWithUI(title string, p *pool.Pool, files []string, opts harness.Options) (harness.Summary, error) {
	events := make(chan harness.Event, 256)
	outcomeCh := make(chan harnessOutcome, 1)

	go func() {
		o := opts
		o.Sink = harness.ChannelSink{Ch: events}
		sum, err := harness.Run(p, files, o)
		outcomeCh <- harnessOutcome{summary: sum, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, len(files), events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the harness unblocked once the UI is gone
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if outcome.err != nil {
		return outcome.summary, outcome.err
	}
	return outcome.summary, uiErr
}
