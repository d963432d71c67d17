package models

import "time"

// StreamState is the live-stream poller's tri-state flag.
type StreamState string

const (
	StreamOffline  StreamState = "offline"
	StreamLive     StreamState = "live"
	StreamFallback StreamState = "fallback"
)

// LiveVideo is a broadcast returned by the video search API.
type LiveVideo struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	ChannelID   string    `json:"channel_id"`
	PublishedAt time.Time `json:"published_at"`
}

// LiveState is a snapshot of the poller.
type LiveState struct {
	State         StreamState   `json:"state"`
	VideoID       string        `json:"video_id,omitempty"`
	Title         string        `json:"title,omitempty"`
	ChannelID     string        `json:"channel_id"`
	Polling       bool          `json:"polling"`
	Interval      time.Duration `json:"interval"`
	LastChecked   time.Time     `json:"last_checked,omitzero"`
	HaltedReason  string        `json:"halted_reason,omitempty"`
	PlayerCreated bool          `json:"player_created"`
}

// PlayerOptions controls how the page creates the embedded player.
type PlayerOptions struct {
	Autoplay bool `json:"autoplay"`
	Muted    bool `json:"muted"`
	Live     bool `json:"live"`
}

// PlayerLoad is the payload of an [EventPlayerLoad].
type PlayerLoad struct {
	VideoID string        `json:"video_id"`
	Options PlayerOptions `json:"options"`
}
