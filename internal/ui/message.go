package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRefreshed MsgKind = iota
	MsgLiveUpdate
	MsgCheckDone
	MsgScoreSaved
	MsgTick
	MsgUpdatesClosed
)

type refreshData struct {
	rankings []models.Ranking
	live     models.LiveState
	updated  time.Time
}

type savedData struct {
	sport string
	score int
	err   error
}

// refreshedMsg is the constructor for [MsgRefreshed]
func refreshedMsg(rankings []models.Ranking, live models.LiveState, updated time.Time) Msg {
	return Msg{kind: MsgRefreshed, data: refreshData{rankings, live, updated}}
}

// liveUpdateMsg is the constructor for [MsgLiveUpdate]
func liveUpdateMsg(u tasks.Update) Msg {
	return Msg{kind: MsgLiveUpdate, data: u}
}

// checkDoneMsg is the constructor for [MsgCheckDone]
func checkDoneMsg(err error) Msg {
	return Msg{kind: MsgCheckDone, data: err}
}

// scoreSavedMsg is the constructor for [MsgScoreSaved]
func scoreSavedMsg(sport string, score int, err error) Msg {
	return Msg{kind: MsgScoreSaved, data: savedData{sport, score, err}}
}

func tickMsg() Msg {
	return Msg{kind: MsgTick}
}

func updatesClosedMsg() Msg {
	return Msg{kind: MsgUpdatesClosed}
}
