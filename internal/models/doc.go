// Package models defines the domain types shared by the scoreboard, live-stream and notification components.
//
// The package contains two categories of types:
//
// 1. Value types passed between components and serialized to page clients
//   - [House] : a competing house with its per-sport scores
//   - [Ranking] : one row of the standings
//   - [LiveState] : the live-stream poller's current state
//   - [Reminder], [Notification], [Toast] : notification helper payloads
//   - [Event] : envelope broadcast to page clients and the event stream
//
// 2. Persistent entities
//   - [ScoreChange] : audit row for a scoreboard update
//
// Persistent entities implement the [Model] interface.
package models
