// Desktop [Notifier] implementation
//
// Stands in for the browser's native Notification API: permission lives in a [PermissionStore],
// delivery shells out to the platform notification command.
package services

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/shared"
)

// DesktopNotifier implements [Notifier] using a local notification command.
type DesktopNotifier struct {
	store    PermissionStore
	command  string
	icon     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, args []string) error
}

// DesktopOpts configures [NewDesktopNotifier].
type DesktopOpts struct {
	Store    PermissionStore
	Command  string // overrides the platform default, invoked as `command <title> <body>`
	Icon     string
	LookPath func(string) (string, error)
	Run      func(ctx context.Context, args []string) error
}

// NewDesktopNotifier creates a desktop notifier.
func NewDesktopNotifier(opts DesktopOpts) *DesktopNotifier {
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.Run == nil {
		opts.Run = func(ctx context.Context, args []string) error {
			return exec.CommandContext(ctx, args[0], args[1:]...).Run()
		}
	}

	return &DesktopNotifier{
		store:    opts.Store,
		command:  opts.Command,
		icon:     opts.Icon,
		lookPath: opts.LookPath,
		run:      opts.Run,
	}
}

// Name returns the backend name.
func (d *DesktopNotifier) Name() string {
	return "desktop"
}

// Ready reports whether a notification command exists on this machine.
func (d *DesktopNotifier) Ready() bool {
	args, err := shared.NotifyArgs(d.command, "", "", "")
	if err != nil {
		return false
	}
	_, err = d.lookPath(args[0])
	return err == nil
}

// Permission returns the stored decision, or unsupported without a notification command.
func (d *DesktopNotifier) Permission(ctx context.Context) (models.Permission, error) {
	if !d.Ready() {
		return models.PermissionUnsupported, nil
	}
	if d.store == nil {
		return models.PermissionDefault, nil
	}
	return d.store.GetPermission(ctx, d.Name())
}

// RequestPermission grants unless the decision is already denied or the platform is unsupported.
func (d *DesktopNotifier) RequestPermission(ctx context.Context) (bool, error) {
	p, err := d.Permission(ctx)
	if err != nil {
		return false, err
	}

	switch p {
	case models.PermissionUnsupported, models.PermissionDenied:
		return false, nil
	case models.PermissionGranted:
		return true, nil
	}

	if d.store != nil {
		if err := d.store.SetPermission(ctx, d.Name(), models.PermissionGranted); err != nil {
			return false, fmt.Errorf("failed to save permission: %w", err)
		}
	}
	return true, nil
}

// SetPermission records an explicit decision (e.g. the user blocked notifications).
func (d *DesktopNotifier) SetPermission(ctx context.Context, p models.Permission) error {
	if d.store == nil {
		return fmt.Errorf("%w: no permission store", shared.ErrServiceUnavailable)
	}
	return d.store.SetPermission(ctx, d.Name(), p)
}

// Send shows a desktop notification when permission is granted.
func (d *DesktopNotifier) Send(ctx context.Context, n models.Notification) error {
	p, err := d.Permission(ctx)
	if err != nil {
		return err
	}
	if p != models.PermissionGranted {
		return fmt.Errorf("%w: desktop permission is %s", shared.ErrPermissionDenied, p)
	}

	icon := n.Icon
	if icon == "" {
		icon = d.icon
	}

	args, err := shared.NotifyArgs(d.command, n.Title, n.Body, icon)
	if err != nil {
		return err
	}
	if err := d.run(ctx, args); err != nil {
		return fmt.Errorf("desktop notification failed: %w", err)
	}
	return nil
}
