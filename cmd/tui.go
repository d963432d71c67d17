package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tclive/internal/shared"
	"github.com/desertthunder/tclive/internal/ui"
)

// TUI launches the interactive scoreboard dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tclive-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := r.newDaemon(ctx, daemonOpts{Restore: true, Updates: true})
	if err != nil {
		return err
	}
	defer d.Close()

	go d.hub.Run(ctx)
	if !cmd.Bool("no-poll") {
		d.poller.Boot(ctx)
	}

	model := ui.NewModel(ctx, d.store, d.poller, d.updates)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
