package tasks

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tclive/internal/models"
)

const (
	reminderToastDuration = 8 * time.Second
	reminderSendTimeout   = 15 * time.Second
)

// Stopper is the part of [time.Timer] the scheduler needs.
type Stopper interface {
	Stop() bool
}

// DeliverFunc sends a reminder notification.
type DeliverFunc func(ctx context.Context, n models.Notification) error

// ReminderOpts configures a [ReminderScheduler].
type ReminderOpts struct {
	Reminders []models.Reminder
	Deliver   DeliverFunc
	Toaster   Toaster
	Logger    *log.Logger
	Updates   chan<- Update
	Icon      string
	URL       string

	// AfterFunc defaults to [time.AfterFunc].
	AfterFunc func(d time.Duration, f func()) Stopper
}

// ReminderScheduler arms one-shot timers for fixed calendar reminders.
type ReminderScheduler struct {
	reminders []models.Reminder
	deliver   DeliverFunc
	toaster   Toaster
	logger    *log.Logger
	updates   chan<- Update
	icon      string
	url       string
	afterFunc func(d time.Duration, f func()) Stopper

	mu     sync.Mutex
	timers map[uint64]Stopper
	nextID uint64
}

// NewReminderScheduler creates a scheduler with no timers armed.
func NewReminderScheduler(opts ReminderOpts) *ReminderScheduler {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) Stopper { return time.AfterFunc(d, f) }
	}

	reminders := make([]models.Reminder, len(opts.Reminders))
	copy(reminders, opts.Reminders)

	return &ReminderScheduler{
		reminders: reminders,
		deliver:   opts.Deliver,
		toaster:   opts.Toaster,
		logger:    opts.Logger,
		updates:   opts.Updates,
		icon:      opts.Icon,
		url:       opts.URL,
		afterFunc: opts.AfterFunc,
		timers:    make(map[uint64]Stopper),
	}
}

// Arm clears existing timers and arms one for every reminder still in the future.
// Returns the number of timers armed.
func (s *ReminderScheduler) Arm(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	for _, r := range s.reminders {
		d := r.At.Sub(now)
		if d <= 0 {
			continue
		}

		s.nextID++
		id := s.nextID
		s.timers[id] = s.afterFunc(d, func() { s.expire(id, r) })
		s.logger.Info("reminder armed", "title", r.Title, "at", r.At, "hours_away", int(d.Round(time.Hour)/time.Hour))
		sendUpdate(s.updates, armedUpdate(r))
	}

	return len(s.timers)
}

// Armed returns the number of timers that have not fired yet.
func (s *ReminderScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Upcoming returns the reminders still in the future at now, in schedule order.
func (s *ReminderScheduler) Upcoming(now time.Time) []models.Reminder {
	var out []models.Reminder
	for _, r := range s.reminders {
		if r.At.After(now) {
			out = append(out, r)
		}
	}
	return out
}

// Stop clears all armed timers.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *ReminderScheduler) stopLocked() {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// expire drops a fired timer and delivers its reminder. A timer that was
// stopped or re-armed after it started running is dropped without firing.
func (s *ReminderScheduler) expire(id uint64, r models.Reminder) {
	s.mu.Lock()
	_, ok := s.timers[id]
	delete(s.timers, id)
	s.mu.Unlock()

	if ok {
		s.fire(r)
	}
}

func (s *ReminderScheduler) fire(r models.Reminder) {
	s.logger.Info("reminder fired", "title", r.Title)

	if s.deliver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), reminderSendTimeout)
		defer cancel()

		n := models.Notification{Title: r.Title, Body: r.Body, Tag: r.Tag, Icon: s.icon, URL: s.url}
		if err := s.deliver(ctx, n); err != nil {
			s.logger.Warn("reminder notification failed", "title", r.Title, "error", err)
		}
	}

	if s.toaster != nil {
		s.toaster.Toast(models.Toast{
			Message:  r.Title + " — " + r.Body,
			Kind:     models.ToastInfo,
			Duration: reminderToastDuration,
		})
	}

	sendUpdate(s.updates, firedUpdate(r))
}
