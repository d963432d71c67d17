// Package repositories implements SQLite persistence for the companion service.
//
// Key Implementations:
//   - [PermissionRepository] : native notification permission per backend (implements services.PermissionStore)
//   - [SessionRepository] : expiring key/value flags (reload-on-first-live, subscriber id)
//   - [ScoreRepository] : audit trail of scoreboard updates, replayable on boot
//
// Sequence numbers provide stable ordering for audit rows independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
