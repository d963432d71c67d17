// package models defines the data model for the sports meet companion service
package models

import (
	"time"

	"github.com/google/uuid"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// EventKind names an [Event] type.
type EventKind string

const (
	EventToast         EventKind = "toast"
	EventPlayerLoad    EventKind = "player.load"
	EventPlayerDestroy EventKind = "player.destroy"
	EventLiveState     EventKind = "live.state"
	EventScoreUpdate   EventKind = "score.update"
	EventPageReload    EventKind = "page.reload"
	EventScoreboard    EventKind = "scoreboard"
	EventPong          EventKind = "pong"
	EventError         EventKind = "error"
)

// Event is the envelope sent to page clients over websocket and appended to the event stream.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent wraps payload in an [Event] with a fresh ID and timestamp.
func NewEvent(kind EventKind, payload any) Event {
	return Event{ID: uuid.NewString(), Kind: kind, Payload: payload, Timestamp: time.Now()}
}

// ClientMessage is sent by page clients over websocket.
type ClientMessage struct {
	Type string `json:"type"`
}
