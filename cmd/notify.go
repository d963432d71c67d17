package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tclive/internal/metrics"
	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/notify"
	"github.com/desertthunder/tclive/internal/repositories"
	"github.com/desertthunder/tclive/internal/tasks"
)

// consoleToaster prints toasts to the runner's output.
type consoleToaster struct{ r *Runner }

func (t consoleToaster) Toast(toast models.Toast) {
	mark := "•"
	switch toast.Kind {
	case models.ToastSuccess:
		mark = "✓"
	case models.ToastError:
		mark = "✗"
	}
	t.r.writePlain("%s %s\n", mark, toast.Message)
}

// openNotifier builds a notification helper whose toasts go to the terminal.
func (r *Runner) openNotifier() (*notify.Helper, *sql.DB, error) {
	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, err
	}

	helper, _, err := r.newNotifier(db, consoleToaster{r}, metrics.New(), nil)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return helper, db, nil
}

// NotifyEnable runs the subscribe flow.
func (r *Runner) NotifyEnable(ctx context.Context, cmd *cli.Command) error {
	helper, db, err := r.openNotifier()
	if err != nil {
		return err
	}
	defer db.Close()
	defer helper.Stop()

	helper.CheckStatus(ctx)
	if !helper.Subscribe(ctx) {
		return fmt.Errorf("notifications were not enabled")
	}
	return nil
}

// NotifyTest sends a test notification through the first ready backend.
func (r *Runner) NotifyTest(ctx context.Context, cmd *cli.Command) error {
	helper, db, err := r.openNotifier()
	if err != nil {
		return err
	}
	defer db.Close()
	defer helper.Stop()

	helper.CheckStatus(ctx)
	return helper.Test(ctx)
}

// NotifyStatus prints subscription and backend state.
func (r *Runner) NotifyStatus(ctx context.Context, cmd *cli.Command) error {
	helper, db, err := r.openNotifier()
	if err != nil {
		return err
	}
	defer db.Close()
	defer helper.Stop()

	helper.CheckStatus(ctx)
	status := helper.Status(ctx, r.now())

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Notifications")
	r.writePlain("Subscribed:        %t\n", status.Subscribed)
	if status.HostedBackend != "" {
		r.writePlain("Hosted (%s):  ready=%t\n", status.HostedBackend, status.HostedReady)
	}
	r.writePlain("Native permission: %s\n", status.NativePermission)
	r.writePlain("Armed reminders:   %d\n", status.ArmedReminders)
	if status.HoursToEvent > 0 {
		r.writePlain("Event starts in:   %dh\n", status.HoursToEvent)
	}
	return nil
}

// NotifyReminders lists the reminders that have not fired yet.
func (r *Runner) NotifyReminders(ctx context.Context, cmd *cli.Command) error {
	reminders, err := r.config.ReminderSchedule()
	if err != nil {
		return err
	}

	scheduler := tasks.NewReminderScheduler(tasks.ReminderOpts{Reminders: reminders})
	upcoming := scheduler.Upcoming(r.now())

	if cmd.Bool("json") {
		return r.writeJSON(upcoming, cmd.Bool("pretty"))
	}

	if len(upcoming) == 0 {
		return r.writePlain("No upcoming reminders\n")
	}

	for _, rem := range upcoming {
		r.writePlain("%s  %s\n", rem.At.Format("Mon Jan 2 15:04 MST"), rem.Title)
		r.writePlain("    %s\n", rem.Body)
	}
	return nil
}

// NotifyReset clears the stored native permission so the next enable asks again.
func (r *Runner) NotifyReset(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.NewPermissionRepository(db).Reset(ctx, "desktop"); err != nil {
		return err
	}

	r.logger.Info("desktop permission reset")
	return r.writePlain("✓ Desktop notification permission reset\n")
}
