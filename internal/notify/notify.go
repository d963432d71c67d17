// package notify implements the notification helper: the subscribe flow across a hosted push
// backend and a native fallback, confirmation toasts, and reminder arming.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tclive/internal/metrics"
	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/shared"
	"github.com/desertthunder/tclive/internal/tasks"
)

const (
	WelcomeTag = "tc-welcome"
	TestTag    = "tc-test"

	defaultToastDuration = 4500 * time.Millisecond
	blockedToastDuration = 7 * time.Second
	promptToastDuration  = 7 * time.Second
	eventDayToast        = 10 * time.Second
)

// Backend is a notification backend (hosted push or native desktop).
type Backend interface {
	Name() string
	Ready() bool
	Permission(ctx context.Context) (models.Permission, error)
	RequestPermission(ctx context.Context) (bool, error)
	Send(ctx context.Context, n models.Notification) error
}

// Tagger is implemented by backends that segment subscribers.
type Tagger interface {
	AddTags(ctx context.Context, tags map[string]string) error
}

// Options configures a [Helper]. Either backend may be nil.
type Options struct {
	Hosted    Backend
	Native    Backend
	Toaster   tasks.Toaster
	Scheduler *tasks.ReminderScheduler
	Metrics   *metrics.Metrics
	Logger    *log.Logger
	Messages  Messages

	EventTag        string
	EventStart      time.Time
	ToastDuration   time.Duration
	AutoPromptDelay time.Duration

	Now func() time.Time
}

// Helper runs the subscribe flow and owns the subscribed flag.
type Helper struct {
	hosted    Backend
	native    Backend
	toaster   tasks.Toaster
	scheduler *tasks.ReminderScheduler
	metrics   *metrics.Metrics
	logger    *log.Logger
	msgs      Messages
	now       func() time.Time

	eventTag        string
	eventStart      time.Time
	toastDuration   time.Duration
	autoPromptDelay time.Duration

	flow       sync.Mutex
	mu         sync.Mutex
	subscribed bool
}

// New creates a helper. The subscribed flag starts false; call [Helper.CheckStatus] to restore it.
func New(opts Options) *Helper {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = defaultToastDuration
	}

	return &Helper{
		hosted:          opts.Hosted,
		native:          opts.Native,
		toaster:         opts.Toaster,
		scheduler:       opts.Scheduler,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		msgs:            opts.Messages,
		now:             opts.Now,
		eventTag:        opts.EventTag,
		eventStart:      opts.EventStart,
		toastDuration:   opts.ToastDuration,
		autoPromptDelay: opts.AutoPromptDelay,
	}
}

// Subscribed reports whether the visitor has enabled notifications.
func (h *Helper) Subscribed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.subscribed
}

func (h *Helper) setSubscribed(v bool) {
	h.mu.Lock()
	h.subscribed = v
	h.mu.Unlock()
}

// Subscribe enables notifications, preferring the hosted backend and falling back to native.
func (h *Helper) Subscribe(ctx context.Context) bool {
	h.flow.Lock()
	defer h.flow.Unlock()

	if h.Subscribed() {
		h.toast(h.msgs.AlreadyOn, models.ToastSuccess, 0)
		return true
	}

	if h.nativePermission(ctx) == models.PermissionDenied {
		h.toast(h.msgs.Blocked, models.ToastError, blockedToastDuration)
		return false
	}

	var ok bool
	if h.hostedReady() {
		ok = h.subscribeHosted(ctx)
		if !ok {
			ok = h.subscribeNative(ctx)
		}
	} else {
		ok = h.subscribeNative(ctx)
	}

	if !ok {
		h.logger.Warn("notification subscribe failed")
		h.toast(h.msgs.Failed, models.ToastError, 0)
		return false
	}

	h.setSubscribed(true)
	h.logger.Info("notifications enabled")
	h.toast(h.msgs.Enabled, models.ToastSuccess, 0)

	if err := h.Deliver(ctx, h.msgs.Welcome); err != nil {
		h.logger.Warn("welcome notification failed", "error", err)
	}
	h.armReminders()
	return true
}

func (h *Helper) subscribeHosted(ctx context.Context) bool {
	ok, err := h.hosted.RequestPermission(ctx)
	if err != nil {
		h.logger.Warn("hosted subscribe error", "backend", h.hosted.Name(), "error", err)
		return false
	}
	if !ok {
		return false
	}

	if tagger, isTagger := h.hosted.(Tagger); isTagger {
		tags := map[string]string{
			"event":       h.eventTag,
			"signup_date": h.now().Format("2006-01-02"),
		}
		if err := tagger.AddTags(ctx, tags); err != nil {
			h.logger.Warn("hosted tagging error", "backend", h.hosted.Name(), "error", err)
			return false
		}
	}
	return true
}

func (h *Helper) subscribeNative(ctx context.Context) bool {
	if h.native == nil {
		return false
	}
	if p := h.nativePermission(ctx); p == models.PermissionDenied || p == models.PermissionUnsupported {
		return false
	}

	ok, err := h.native.RequestPermission(ctx)
	if err != nil {
		h.logger.Warn("native permission request failed", "backend", h.native.Name(), "error", err)
		return false
	}
	return ok
}

// CheckStatus restores the subscribed flag from backend permissions and arms reminders when granted.
func (h *Helper) CheckStatus(ctx context.Context) bool {
	granted := false

	if h.hostedReady() {
		p, err := h.hosted.Permission(ctx)
		if err != nil {
			h.logger.Debug("hosted permission check failed", "error", err)
		}
		granted = p == models.PermissionGranted
	}
	if !granted {
		granted = h.nativePermission(ctx) == models.PermissionGranted
	}

	h.setSubscribed(granted)
	if granted {
		h.armReminders()
	}
	return granted
}

// CheckEventDay shows the event-day banner when now falls on the event date.
func (h *Helper) CheckEventDay(now time.Time) (string, bool) {
	if h.eventStart.IsZero() {
		return "", false
	}

	local := now.In(h.eventStart.Location())
	if !shared.SameDay(h.eventStart, local) {
		return "", false
	}

	msg := h.msgs.EventLive
	if local.Hour() < h.eventStart.Hour() {
		msg = h.msgs.EventToday
	}
	h.toast(msg, models.ToastInfo, eventDayToast)
	return msg, true
}

// AutoPrompt hints at the bell button when the visitor has not decided yet.
func (h *Helper) AutoPrompt(ctx context.Context) bool {
	if h.nativePermission(ctx) != models.PermissionDefault {
		return false
	}
	h.toast(h.msgs.AutoPrompt, models.ToastInfo, promptToastDuration)
	return true
}

// Boot restores status, shows the event-day banner and schedules the auto-prompt.
func (h *Helper) Boot(ctx context.Context) {
	h.CheckStatus(ctx)
	h.CheckEventDay(h.now())

	if h.autoPromptDelay <= 0 {
		return
	}
	go func() {
		timer := time.NewTimer(h.autoPromptDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			h.AutoPrompt(ctx)
		}
	}()
}

// Test sends a test notification through the active backend.
func (h *Helper) Test(ctx context.Context) error {
	if err := h.Deliver(ctx, h.msgs.Test); err != nil {
		h.toast(h.msgs.TestFailed, models.ToastError, 0)
		return err
	}
	h.toast(h.msgs.TestSent, models.ToastSuccess, 0)
	return nil
}

// Deliver sends n through the native backend when granted, otherwise through the hosted backend.
func (h *Helper) Deliver(ctx context.Context, n models.Notification) error {
	if h.native != nil && h.nativePermission(ctx) == models.PermissionGranted {
		err := h.native.Send(ctx, n)
		h.metrics.RecordNotification(h.native.Name(), err)
		return err
	}

	if h.hostedReady() {
		if p, err := h.hosted.Permission(ctx); err == nil && p == models.PermissionGranted {
			err := h.hosted.Send(ctx, n)
			h.metrics.RecordNotification(h.hosted.Name(), err)
			return err
		}
	}

	return fmt.Errorf("%w: no backend has permission", shared.ErrNotSubscribed)
}

// Status summarizes the helper at now.
func (h *Helper) Status(ctx context.Context, now time.Time) models.NotifyStatus {
	status := models.NotifyStatus{
		Subscribed:       h.Subscribed(),
		HostedReady:      h.hostedReady(),
		NativePermission: h.nativePermission(ctx),
	}
	if h.hosted != nil {
		status.HostedBackend = h.hosted.Name()
	}
	if !h.eventStart.IsZero() {
		status.HoursToEvent = shared.HoursUntil(now, h.eventStart)
	}
	if h.scheduler != nil {
		status.ArmedReminders = h.scheduler.Armed()
	}
	return status
}

// Stop clears reminder timers.
func (h *Helper) Stop() {
	if h.scheduler != nil {
		h.scheduler.Stop()
	}
}

func (h *Helper) hostedReady() bool {
	return h.hosted != nil && h.hosted.Ready()
}

func (h *Helper) nativePermission(ctx context.Context) models.Permission {
	if h.native == nil {
		return models.PermissionUnsupported
	}
	p, err := h.native.Permission(ctx)
	if err != nil {
		h.logger.Debug("native permission check failed", "error", err)
		return models.PermissionDefault
	}
	return p
}

func (h *Helper) armReminders() {
	if h.scheduler == nil {
		return
	}
	n := h.scheduler.Arm(h.now())
	h.logger.Debug("reminders armed", "count", n)
}

func (h *Helper) toast(msg string, kind models.ToastKind, d time.Duration) {
	if h.toaster == nil || msg == "" {
		return
	}
	if d <= 0 {
		d = h.toastDuration
	}
	h.toaster.Toast(models.Toast{Message: msg, Kind: kind, Duration: d})
}
