package hub

import (
	"time"

	"github.com/desertthunder/tclive/internal/models"
)

// Player drives the embedded player on page clients.
type Player struct {
	hub *Hub
}

// NewPlayer creates a player that broadcasts through h.
func NewPlayer(h *Hub) *Player {
	return &Player{hub: h}
}

// Load tells clients to replace the current player with videoID.
func (p *Player) Load(videoID string, opts models.PlayerOptions) {
	p.hub.Broadcast(models.NewEvent(models.EventPlayerLoad, models.PlayerLoad{VideoID: videoID, Options: opts}))
}

// Destroy tells clients to remove the player and restore the placeholder.
func (p *Player) Destroy() {
	p.hub.Broadcast(models.NewEvent(models.EventPlayerDestroy, nil))
}

// Toaster shows toasts on page clients.
type Toaster struct {
	hub      *Hub
	duration time.Duration
}

// NewToaster creates a toaster; toasts without a duration use d.
func NewToaster(h *Hub, d time.Duration) *Toaster {
	return &Toaster{hub: h, duration: d}
}

// Toast broadcasts t.
func (t *Toaster) Toast(toast models.Toast) {
	if toast.Duration <= 0 {
		toast.Duration = t.duration
	}
	t.hub.Broadcast(models.NewEvent(models.EventToast, toast))
}
