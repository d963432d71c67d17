// Package scoreboard holds the house standings for the sports meet.
//
// A [Store] is an in-memory table of house → sport → score, seeded from [DefaultHouses].
// Writes go through [Store.Update] or [Store.SetHouse], which reject unknown houses and sports
// with [shared.ErrInvalidIdentifier], bump the last-update timestamp, and hand every change to
// an optional [Recorder] (the SQLite audit trail, the websocket hub).
//
// [Store.Rank] orders houses by descending total; ties keep the order houses were added in.
package scoreboard
