package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/shared"
	"github.com/desertthunder/tclive/internal/tasks"
	tu "github.com/desertthunder/tclive/internal/testing"
)

var eventStart = time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)

type stopper struct{}

func (stopper) Stop() bool { return true }

type fixture struct {
	hosted  *tu.MockBackend
	native  *tu.MockBackend
	toaster *tu.MockToaster
	helper  *Helper
}

func newFixture(now time.Time, hosted, native *tu.MockBackend) *fixture {
	f := &fixture{hosted: hosted, native: native, toaster: &tu.MockToaster{}}

	scheduler := tasks.NewReminderScheduler(tasks.ReminderOpts{
		Reminders: []models.Reminder{
			{At: eventStart.Add(-time.Hour), Title: "1 hour"},
			{At: eventStart, Title: "live"},
		},
		AfterFunc: func(time.Duration, func()) tasks.Stopper { return stopper{} },
	})

	opts := Options{
		Toaster:    f.toaster,
		Scheduler:  scheduler,
		Messages:   DefaultMessages("TCLive Sports", "Interhouse Sports Meet 2026", eventStart),
		EventTag:   "sportsmeet_2026",
		EventStart: eventStart,
		Now:        func() time.Time { return now },
	}
	if hosted != nil {
		opts.Hosted = hosted
	}
	if native != nil {
		opts.Native = native
	}
	f.helper = New(opts)
	return f
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("hosted success tags user and arms reminders", func(t *testing.T) {
		f := newFixture(now, tu.NewMockBackend("onesignal"), tu.NewMockBackend("desktop"))

		if !f.helper.Subscribe(ctx) {
			t.Fatal("expected subscribe to succeed")
		}
		if !f.helper.Subscribed() {
			t.Error("expected subscribed flag to be set")
		}
		if f.hosted.Tags["event"] != "sportsmeet_2026" || f.hosted.Tags["signup_date"] != "2026-03-10" {
			t.Errorf("unexpected tags %v", f.hosted.Tags)
		}
		if f.native.Requests != 0 {
			t.Errorf("expected no native request, got %d", f.native.Requests)
		}

		toast := f.toaster.Last()
		if toast.Kind != models.ToastSuccess || toast.Message != f.helper.msgs.Enabled {
			t.Errorf("expected enabled toast, got %+v", toast)
		}
		if got := f.helper.Status(ctx, now).ArmedReminders; got != 2 {
			t.Errorf("expected 2 armed reminders, got %d", got)
		}
	})

	t.Run("sends welcome notification", func(t *testing.T) {
		f := newFixture(now, nil, tu.NewMockBackend("desktop"))
		f.helper.Subscribe(ctx)

		if len(f.native.Sent) != 1 {
			t.Fatalf("expected welcome notification, got %d", len(f.native.Sent))
		}
		if f.native.Sent[0].Tag != WelcomeTag {
			t.Errorf("expected tag %s, got %s", WelcomeTag, f.native.Sent[0].Tag)
		}
	})

	t.Run("second subscribe does not request permission again", func(t *testing.T) {
		f := newFixture(now, tu.NewMockBackend("onesignal"), tu.NewMockBackend("desktop"))
		f.helper.Subscribe(ctx)

		if !f.helper.Subscribe(ctx) {
			t.Fatal("expected second subscribe to report true")
		}
		if f.hosted.Requests != 1 {
			t.Errorf("expected 1 permission request, got %d", f.hosted.Requests)
		}
		toast := f.toaster.Last()
		if toast.Message != f.helper.msgs.AlreadyOn || toast.Kind != models.ToastSuccess {
			t.Errorf("expected already-on toast, got %+v", toast)
		}
	})

	t.Run("native denied shows blocked toast", func(t *testing.T) {
		native := tu.NewMockBackend("desktop")
		native.Perm = models.PermissionDenied
		hosted := tu.NewMockBackend("onesignal")
		f := newFixture(now, hosted, native)

		if f.helper.Subscribe(ctx) {
			t.Fatal("expected subscribe to fail")
		}
		if hosted.Requests != 0 || native.Requests != 0 {
			t.Errorf("expected no permission requests, got hosted=%d native=%d", hosted.Requests, native.Requests)
		}
		toast := f.toaster.Last()
		if toast.Kind != models.ToastError || toast.Duration != 7*time.Second {
			t.Errorf("expected 7s error toast, got %+v", toast)
		}
	})

	t.Run("hosted failure falls back to native", func(t *testing.T) {
		hosted := tu.NewMockBackend("onesignal")
		hosted.RequestErr = tu.ErrMock
		native := tu.NewMockBackend("desktop")
		f := newFixture(now, hosted, native)

		if !f.helper.Subscribe(ctx) {
			t.Fatal("expected native fallback to succeed")
		}
		if native.Requests != 1 {
			t.Errorf("expected native request, got %d", native.Requests)
		}
	})

	t.Run("tagging failure falls back to native", func(t *testing.T) {
		hosted := tu.NewMockBackend("onesignal")
		hosted.TagErr = tu.ErrMock
		native := tu.NewMockBackend("desktop")
		f := newFixture(now, hosted, native)

		if !f.helper.Subscribe(ctx) {
			t.Fatal("expected native fallback to succeed")
		}
		if native.Requests != 1 {
			t.Errorf("expected native request, got %d", native.Requests)
		}
	})

	t.Run("hosted not ready uses native directly", func(t *testing.T) {
		hosted := tu.NewMockBackend("onesignal")
		hosted.IsReady = false
		native := tu.NewMockBackend("desktop")
		f := newFixture(now, hosted, native)

		f.helper.Subscribe(ctx)
		if hosted.Requests != 0 {
			t.Errorf("expected hosted to be skipped, got %d requests", hosted.Requests)
		}
		if native.Requests != 1 {
			t.Errorf("expected native request, got %d", native.Requests)
		}
	})

	t.Run("all backends fail", func(t *testing.T) {
		hosted := tu.NewMockBackend("onesignal")
		hosted.Grant = false
		native := tu.NewMockBackend("desktop")
		native.Grant = false
		f := newFixture(now, hosted, native)

		if f.helper.Subscribe(ctx) {
			t.Fatal("expected subscribe to fail")
		}
		if f.helper.Subscribed() {
			t.Error("expected subscribed flag to remain false")
		}
		toast := f.toaster.Last()
		if toast.Message != f.helper.msgs.Failed || toast.Kind != models.ToastError {
			t.Errorf("expected failed toast, got %+v", toast)
		}
		if f.helper.Status(ctx, now).ArmedReminders != 0 {
			t.Error("expected no reminders armed")
		}
	})

	t.Run("no backends", func(t *testing.T) {
		f := newFixture(now, nil, nil)
		if f.helper.Subscribe(ctx) {
			t.Fatal("expected subscribe to fail without backends")
		}
	})
}

func TestCheckStatus(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("hosted granted", func(t *testing.T) {
		hosted := tu.NewMockBackend("onesignal")
		hosted.Perm = models.PermissionGranted
		f := newFixture(now, hosted, tu.NewMockBackend("desktop"))

		if !f.helper.CheckStatus(ctx) {
			t.Fatal("expected granted status")
		}
		if f.helper.Status(ctx, now).ArmedReminders != 2 {
			t.Error("expected reminders armed on boot")
		}
	})

	t.Run("native granted", func(t *testing.T) {
		native := tu.NewMockBackend("desktop")
		native.Perm = models.PermissionGranted
		f := newFixture(now, tu.NewMockBackend("onesignal"), native)

		if !f.helper.CheckStatus(ctx) {
			t.Fatal("expected granted status")
		}
	})

	t.Run("nothing granted", func(t *testing.T) {
		f := newFixture(now, tu.NewMockBackend("onesignal"), tu.NewMockBackend("desktop"))
		if f.helper.CheckStatus(ctx) {
			t.Fatal("expected not granted")
		}
		if f.helper.Subscribed() {
			t.Error("expected subscribed false")
		}
	})
}

func TestCheckEventDay(t *testing.T) {
	f := newFixture(eventStart, nil, nil)

	t.Run("before start", func(t *testing.T) {
		msg, ok := f.helper.CheckEventDay(time.Date(2026, 3, 12, 7, 30, 0, 0, time.UTC))
		if !ok || msg != f.helper.msgs.EventToday {
			t.Errorf("expected today banner, got %q", msg)
		}
		if toast := f.toaster.Last(); toast.Duration != 10*time.Second || toast.Kind != models.ToastInfo {
			t.Errorf("expected 10s info toast, got %+v", toast)
		}
	})

	t.Run("after start", func(t *testing.T) {
		msg, ok := f.helper.CheckEventDay(time.Date(2026, 3, 12, 11, 0, 0, 0, time.UTC))
		if !ok || msg != f.helper.msgs.EventLive {
			t.Errorf("expected live banner, got %q", msg)
		}
	})

	t.Run("other day", func(t *testing.T) {
		if _, ok := f.helper.CheckEventDay(time.Date(2026, 3, 11, 11, 0, 0, 0, time.UTC)); ok {
			t.Error("expected no banner on another day")
		}
	})
}

func TestAutoPrompt(t *testing.T) {
	ctx := context.Background()

	t.Run("default permission shows hint", func(t *testing.T) {
		f := newFixture(eventStart, nil, tu.NewMockBackend("desktop"))
		if !f.helper.AutoPrompt(ctx) {
			t.Fatal("expected hint")
		}
		if toast := f.toaster.Last(); toast.Duration != 7*time.Second {
			t.Errorf("expected 7s toast, got %s", toast.Duration)
		}
	})

	t.Run("decided permission is silent", func(t *testing.T) {
		native := tu.NewMockBackend("desktop")
		native.Perm = models.PermissionGranted
		f := newFixture(eventStart, nil, native)
		if f.helper.AutoPrompt(ctx) {
			t.Error("expected no hint when already granted")
		}
	})

	t.Run("unsupported is silent", func(t *testing.T) {
		f := newFixture(eventStart, nil, nil)
		if f.helper.AutoPrompt(ctx) {
			t.Error("expected no hint without native backend")
		}
	})
}

func TestTestAndDeliver(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("not subscribed", func(t *testing.T) {
		f := newFixture(now, tu.NewMockBackend("onesignal"), tu.NewMockBackend("desktop"))
		err := f.helper.Test(ctx)
		if !errors.Is(err, shared.ErrNotSubscribed) {
			t.Errorf("expected ErrNotSubscribed, got %v", err)
		}
		if f.toaster.Last().Kind != models.ToastError {
			t.Error("expected error toast")
		}
	})

	t.Run("native preferred when granted", func(t *testing.T) {
		hosted := tu.NewMockBackend("onesignal")
		hosted.Perm = models.PermissionGranted
		native := tu.NewMockBackend("desktop")
		native.Perm = models.PermissionGranted
		f := newFixture(now, hosted, native)

		if err := f.helper.Test(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if native.SentCount() != 1 || hosted.SentCount() != 0 {
			t.Errorf("expected native delivery, got native=%d hosted=%d", native.SentCount(), hosted.SentCount())
		}
		if native.Sent[0].Tag != TestTag {
			t.Errorf("expected test tag, got %s", native.Sent[0].Tag)
		}
	})

	t.Run("hosted when native not granted", func(t *testing.T) {
		hosted := tu.NewMockBackend("onesignal")
		hosted.Perm = models.PermissionGranted
		f := newFixture(now, hosted, tu.NewMockBackend("desktop"))

		if err := f.helper.Test(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if hosted.SentCount() != 1 {
			t.Errorf("expected hosted delivery, got %d", hosted.SentCount())
		}
	})
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(eventStart, tu.NewMockBackend("onesignal"), tu.NewMockBackend("desktop"))

	s := f.helper.Status(ctx, eventStart.Add(-48*time.Hour))
	if s.HoursToEvent != 48 {
		t.Errorf("expected 48 hours to event, got %d", s.HoursToEvent)
	}
	if !s.HostedReady || s.HostedBackend != "onesignal" {
		t.Errorf("expected hosted ready, got %+v", s)
	}
	if s.NativePermission != models.PermissionDefault {
		t.Errorf("expected default native permission, got %s", s.NativePermission)
	}
}
