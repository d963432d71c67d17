// Package tasks runs the background work of the companion service: the live-stream poller and
// the reminder scheduler.
//
// # Live-stream poller
//
// [LivePoller] queries a [services.LiveSearcher] on an interval and drives a [Player]:
//
//	OFFLINE ──live found──▶ LIVE ──empty result──▶ OFFLINE (or FALLBACK when configured)
//	FALLBACK ──live found──▶ LIVE
//
// A repeated live ID is a no-op; a different ID loads a new player. Failed searches count as
// "no live stream" for the cycle. A 4xx response (bad key, forbidden, quota) or missing
// credentials also halts polling until [LivePoller.Start] is called again.
//
// Poll cycles and manual loads are serialized by a mutex, so a slow response cannot overwrite
// the result of a newer cycle.
//
// # Reminder scheduler
//
// [ReminderScheduler.Arm] clears all timers and arms a one-shot timer for every reminder that
// is still in the future. A firing reminder delivers a notification and shows an info toast.
//
// # Status updates
//
// Both emit [Update] values on an optional channel. Sends use select with default so a slow
// consumer never blocks polling.
package tasks
