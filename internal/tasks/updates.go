package tasks

import (
	"fmt"

	"github.com/desertthunder/tclive/internal/models"
)

// Update is a status event emitted by the poller or reminder scheduler.
//
// Used to send real-time updates to the CLI or UI layer for display.
type Update struct {
	Phase   Phase            // What happened
	State   models.LiveState // Poller snapshot after the event (zero for reminders)
	Message string           // Human-readable message for display
	Err     error            // Set for PollFailed and PollHalted
}

// Operation phase enumeration
type Phase int

const (
	PollStarted Phase = iota
	PollStopped
	PollChecked
	PollFailed
	PollHalted
	LiveActivated
	LiveDeactivated
	FallbackActivated
	PageReload
	ReminderArmed
	ReminderFired
)

func (p Phase) String() string {
	switch p {
	case PollStarted:
		return "poll_started"
	case PollStopped:
		return "poll_stopped"
	case PollChecked:
		return "poll_checked"
	case PollFailed:
		return "poll_failed"
	case PollHalted:
		return "poll_halted"
	case LiveActivated:
		return "live_activated"
	case LiveDeactivated:
		return "live_deactivated"
	case FallbackActivated:
		return "fallback_activated"
	case PageReload:
		return "page_reload"
	case ReminderArmed:
		return "reminder_armed"
	case ReminderFired:
		return "reminder_fired"
	default:
		return ""
	}
}

// sendUpdate uses select with default to ensure status reporting never blocks execution.
func sendUpdate(updates chan<- Update, update Update) {
	if updates == nil {
		return
	}
	select {
	case updates <- update:
	default:
	}
}

func startedUpdate(s models.LiveState) Update {
	return Update{Phase: PollStarted, State: s, Message: fmt.Sprintf("Polling every %s", s.Interval)}
}

func stoppedUpdate(s models.LiveState) Update {
	return Update{Phase: PollStopped, State: s, Message: "Polling stopped"}
}

func checkedUpdate(s models.LiveState) Update {
	if s.State == models.StreamLive {
		return Update{Phase: PollChecked, State: s, Message: fmt.Sprintf("Live: %s", s.VideoID)}
	}
	return Update{Phase: PollChecked, State: s, Message: fmt.Sprintf("No live stream right now. Next check in %s", s.Interval)}
}

func failedUpdate(s models.LiveState, err error) Update {
	return Update{Phase: PollFailed, State: s, Message: fmt.Sprintf("Live search failed: %v", err), Err: err}
}

func haltedUpdate(s models.LiveState, err error) Update {
	return Update{Phase: PollHalted, State: s, Message: fmt.Sprintf("Polling halted: %v", err), Err: err}
}

func activatedUpdate(s models.LiveState) Update {
	return Update{Phase: LiveActivated, State: s, Message: fmt.Sprintf("▶ Live player activated: %s (%s)", s.VideoID, s.Title)}
}

func deactivatedUpdate(s models.LiveState) Update {
	return Update{Phase: LiveDeactivated, State: s, Message: "Stream ended, coming soon restored"}
}

func fallbackUpdate(s models.LiveState) Update {
	return Update{Phase: FallbackActivated, State: s, Message: fmt.Sprintf("Fallback video loaded: %s", s.VideoID)}
}

func reloadUpdate(s models.LiveState) Update {
	return Update{Phase: PageReload, State: s, Message: "Page reload requested for first live detection"}
}

func armedUpdate(r models.Reminder) Update {
	return Update{Phase: ReminderArmed, Message: fmt.Sprintf("Reminder armed: %s at %s", r.Title, r.At.Format("2006-01-02 15:04"))}
}

func firedUpdate(r models.Reminder) Update {
	return Update{Phase: ReminderFired, Message: fmt.Sprintf("Reminder fired: %s", r.Title)}
}
