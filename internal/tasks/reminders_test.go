package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tclive/internal/models"
	tu "github.com/desertthunder/tclive/internal/testing"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func testReminders() []models.Reminder {
	loc := time.UTC
	return []models.Reminder{
		{At: time.Date(2026, 3, 11, 9, 0, 0, 0, loc), Title: "📅 Sports Meet is TOMORROW!", Body: "Starts tomorrow", Tag: "day1"},
		{At: time.Date(2026, 3, 12, 8, 0, 0, 0, loc), Title: "⏰ 1 HOUR TO GO", Body: "60 minutes", Tag: "hour1"},
		{At: time.Date(2026, 3, 12, 9, 0, 0, 0, loc), Title: "🔴 WE'RE LIVE", Body: "Now", Tag: "golive"},
	}
}

func TestReminderScheduler(t *testing.T) {
	t.Run("arms only future reminders", func(t *testing.T) {
		clock := &fakeClock{}
		s := NewReminderScheduler(ReminderOpts{Reminders: testReminders(), AfterFunc: clock.AfterFunc})

		now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
		if n := s.Arm(now); n != 2 {
			t.Fatalf("expected 2 timers, got %d", n)
		}
		if clock.timers[0].d != 20*time.Hour {
			t.Errorf("expected first timer in 20h, got %s", clock.timers[0].d)
		}
		if len(s.Upcoming(now)) != 2 {
			t.Errorf("expected 2 upcoming reminders, got %d", len(s.Upcoming(now)))
		}
	})

	t.Run("reminder at now is past", func(t *testing.T) {
		clock := &fakeClock{}
		s := NewReminderScheduler(ReminderOpts{Reminders: testReminders(), AfterFunc: clock.AfterFunc})
		if n := s.Arm(time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)); n != 0 {
			t.Errorf("expected no timers, got %d", n)
		}
	})

	t.Run("re-arming clears old timers", func(t *testing.T) {
		clock := &fakeClock{}
		s := NewReminderScheduler(ReminderOpts{Reminders: testReminders(), AfterFunc: clock.AfterFunc})
		now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

		s.Arm(now)
		s.Arm(now)

		if s.Armed() != 3 {
			t.Errorf("expected 3 armed timers, got %d", s.Armed())
		}
		for i, timer := range clock.timers[:3] {
			if !timer.stopped {
				t.Errorf("expected timer %d from first Arm to be stopped", i)
			}
		}
	})

	t.Run("Stop clears timers", func(t *testing.T) {
		clock := &fakeClock{}
		s := NewReminderScheduler(ReminderOpts{Reminders: testReminders(), AfterFunc: clock.AfterFunc})
		s.Arm(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		s.Stop()

		if s.Armed() != 0 {
			t.Errorf("expected no armed timers, got %d", s.Armed())
		}
		for _, timer := range clock.timers {
			if !timer.stopped {
				t.Error("expected all timers stopped")
			}
		}
	})

	t.Run("fire delivers notification and toast", func(t *testing.T) {
		clock := &fakeClock{}
		toaster := &tu.MockToaster{}
		var sent []models.Notification

		s := NewReminderScheduler(ReminderOpts{
			Reminders: testReminders(),
			AfterFunc: clock.AfterFunc,
			Toaster:   toaster,
			Icon:      "icon.png",
			Deliver: func(_ context.Context, n models.Notification) error {
				sent = append(sent, n)
				return nil
			},
		})
		s.Arm(time.Date(2026, 3, 12, 8, 30, 0, 0, time.UTC))
		clock.timers[0].f()

		if len(sent) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(sent))
		}
		if sent[0].Tag != "golive" || sent[0].Icon != "icon.png" {
			t.Errorf("unexpected notification %+v", sent[0])
		}

		toast := toaster.Last()
		if toast.Message != "🔴 WE'RE LIVE — Now" {
			t.Errorf("unexpected toast message %q", toast.Message)
		}
		if toast.Kind != models.ToastInfo || toast.Duration != 8*time.Second {
			t.Errorf("expected 8s info toast, got %+v", toast)
		}
	})

	t.Run("fired reminders are no longer armed", func(t *testing.T) {
		clock := &fakeClock{}
		fired := 0
		s := NewReminderScheduler(ReminderOpts{
			Reminders: testReminders(),
			AfterFunc: clock.AfterFunc,
			Deliver: func(_ context.Context, _ models.Notification) error {
				fired++
				return nil
			},
		})

		if n := s.Arm(time.Date(2026, 3, 12, 8, 30, 0, 0, time.UTC)); n != 1 {
			t.Fatalf("expected 1 timer, got %d", n)
		}
		clock.timers[0].f()

		if s.Armed() != 0 {
			t.Errorf("expected no armed timers after firing, got %d", s.Armed())
		}
		if fired != 1 {
			t.Errorf("expected 1 delivery, got %d", fired)
		}
	})

	t.Run("fired reminder leaves the rest armed", func(t *testing.T) {
		clock := &fakeClock{}
		s := NewReminderScheduler(ReminderOpts{Reminders: testReminders(), AfterFunc: clock.AfterFunc})

		s.Arm(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		clock.timers[0].f()

		if s.Armed() != 2 {
			t.Errorf("expected 2 armed timers, got %d", s.Armed())
		}
	})

	t.Run("superseded timer does not fire", func(t *testing.T) {
		clock := &fakeClock{}
		fired := 0
		s := NewReminderScheduler(ReminderOpts{
			Reminders: testReminders(),
			AfterFunc: clock.AfterFunc,
			Deliver: func(_ context.Context, _ models.Notification) error {
				fired++
				return nil
			},
		})
		now := time.Date(2026, 3, 12, 8, 30, 0, 0, time.UTC)

		s.Arm(now)
		s.Arm(now)
		clock.timers[0].f()

		if fired != 0 {
			t.Errorf("expected stale timer to be dropped, got %d deliveries", fired)
		}
		if s.Armed() != 1 {
			t.Errorf("expected the re-armed timer to remain, got %d", s.Armed())
		}
	})

	t.Run("real timers fire", func(t *testing.T) {
		fired := make(chan string, 1)
		now := time.Now()
		s := NewReminderScheduler(ReminderOpts{
			Reminders: []models.Reminder{{At: now.Add(10 * time.Millisecond), Title: "soon"}},
			Deliver: func(_ context.Context, n models.Notification) error {
				fired <- n.Title
				return nil
			},
		})
		defer s.Stop()
		s.Arm(now)

		select {
		case title := <-fired:
			if title != "soon" {
				t.Errorf("expected soon, got %s", title)
			}
			if s.Armed() != 0 {
				t.Errorf("expected fired timer to be dropped, got %d armed", s.Armed())
			}
		case <-time.After(2 * time.Second):
			t.Fatal("reminder did not fire")
		}
	})
}
