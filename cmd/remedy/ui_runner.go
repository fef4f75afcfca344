package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"remedy/internal/diag"
	"remedy/internal/document"
	"remedy/internal/fix"
	"remedy/internal/source"
	"remedy/internal/ui"
)

type fixOutcome struct {
	report *fix.Report
	err    error
}

// runFixWithUI runs the orchestrator built by newOrch in the background and
// renders its progress events until the run is over.
func runFixWithUI(
	ctx context.Context,
	title string,
	ids []source.DocumentID,
	names map[source.DocumentID]string,
	newOrch func(fix.ProgressSink) *fix.Orchestrator,
	docs []*document.Document,
	findings []diag.Finding,
) (*fix.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan fix.Event, 256)
	outcomeCh := make(chan fixOutcome, 1)

	go func() {
		orch := newOrch(fix.ChannelSink{Ch: events})
		rep, err := orch.FixAll(ctx, docs, findings)
		outcomeCh <- fixOutcome{report: rep, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, ids, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// дочитываем канал, чтобы оркестратор не заблокировался после выхода UI
	go func() {
		for range events {
		}
	}()
	var outcome fixOutcome
	select {
	case outcome = <-outcomeCh:
	default:
		// UI закрыли раньше конца прогона: отменяем
		cancel()
		outcome = <-outcomeCh
	}
	if uiErr != nil && outcome.err == nil {
		return outcome.report, uiErr
	}
	return outcome.report, outcome.err
}
