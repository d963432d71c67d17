// Package ui implements the terminal dashboard using bubbletea's Elm architecture.
//
// The dashboard has three views:
//  1. [RankingsView] : live standings, refreshed every couple of seconds
//  2. [HouseView] : per-sport scores of the selected house
//  3. [EditView] : overwrite one sport score
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Poller updates flow through a [tasks.Update] channel and are shown in the header and the activity panel.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, c, p, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
