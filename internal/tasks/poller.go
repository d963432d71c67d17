package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tclive/internal/metrics"
	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/services"
	"github.com/desertthunder/tclive/internal/shared"
)

const (
	defaultCheckInterval = 30 * time.Second
	defaultReloadTTL     = 6 * time.Hour
	liveToastDuration    = 5 * time.Second
	reloadSessionKey     = "live.reloaded"
)

// Player shows videos to page clients. Load replaces whatever is currently shown.
type Player interface {
	Load(videoID string, opts models.PlayerOptions)
	Destroy()
}

// Toaster shows a transient status message.
type Toaster interface {
	Toast(t models.Toast)
}

// EventSink receives state events (websocket hub, event stream).
type EventSink interface {
	Publish(ctx context.Context, e models.Event) error
}

// SessionStore keeps expiring flags across restarts.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// PollerOpts configures a [LivePoller]. Searcher and Player are required.
type PollerOpts struct {
	Searcher services.LiveSearcher
	Player   Player
	Toaster  Toaster
	Sink     EventSink
	Sessions SessionStore
	Metrics  *metrics.Metrics
	Logger   *log.Logger
	Updates  chan<- Update

	ChannelID       string
	EventName       string
	Interval        time.Duration
	Autoplay        bool
	MutedStart      bool
	FallbackVideoID string

	// ReloadOnFirstLive asks page clients to reload once on the first live detection per ReloadTTL.
	ReloadOnFirstLive bool
	ReloadTTL         time.Duration

	Now func() time.Time
}

// LivePoller toggles the page player between the coming-soon placeholder, a fallback video
// and the channel's live broadcast.
//
// Poll cycles are serialized: a cycle never overlaps another cycle or a manual Load.
type LivePoller struct {
	searcher services.LiveSearcher
	player   Player
	toaster  Toaster
	sink     EventSink
	sessions SessionStore
	metrics  *metrics.Metrics
	logger   *log.Logger
	updates  chan<- Update
	now      func() time.Time

	channelID         string
	eventName         string
	interval          time.Duration
	autoplay          bool
	mutedStart        bool
	fallbackID        string
	reloadOnFirstLive bool
	reloadTTL         time.Duration

	cycle sync.Mutex

	mu            sync.Mutex
	state         models.StreamState
	videoID       string
	title         string
	playerCreated bool
	lastChecked   time.Time
	halted        string
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewLivePoller creates a poller in the offline state.
func NewLivePoller(opts PollerOpts) *LivePoller {
	if opts.Interval <= 0 {
		opts.Interval = defaultCheckInterval
	}
	if opts.ReloadTTL <= 0 {
		opts.ReloadTTL = defaultReloadTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.EventName == "" {
		opts.EventName = "Sports Meet"
	}

	return &LivePoller{
		searcher:          opts.Searcher,
		player:            opts.Player,
		toaster:           opts.Toaster,
		sink:              opts.Sink,
		sessions:          opts.Sessions,
		metrics:           opts.Metrics,
		logger:            opts.Logger,
		updates:           opts.Updates,
		now:               opts.Now,
		channelID:         opts.ChannelID,
		eventName:         opts.EventName,
		interval:          opts.Interval,
		autoplay:          opts.Autoplay,
		mutedStart:        opts.MutedStart,
		fallbackID:        opts.FallbackVideoID,
		reloadOnFirstLive: opts.ReloadOnFirstLive,
		reloadTTL:         opts.ReloadTTL,
		state:             models.StreamOffline,
	}
}

// Boot shows the fallback video (if configured) and starts polling.
func (p *LivePoller) Boot(ctx context.Context) {
	if p.fallbackID != "" {
		p.cycle.Lock()
		p.activateFallback(ctx)
		p.cycle.Unlock()
	}
	p.Start(ctx)
}

// Start polls immediately and then every interval until ctx is done, Stop is called,
// or a client error halts polling. Returns false if polling was already running.
func (p *LivePoller) Start(ctx context.Context) bool {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return false
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	p.halted = ""
	p.mu.Unlock()

	p.metrics.SetPolling(true)
	p.logger.Info("polling started", "interval", p.interval, "channel", p.channelID)

	state := p.Status()
	sendUpdate(p.updates, startedUpdate(state))
	p.publishState(ctx, state)

	go p.run(loopCtx, done)
	return true
}

func (p *LivePoller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}

// Stop stops automatic polling and waits for the loop to exit. Returns false if not running.
func (p *LivePoller) Stop() bool {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	<-done

	p.metrics.SetPolling(false)
	p.logger.Info("polling stopped")

	state := p.Status()
	sendUpdate(p.updates, stoppedUpdate(state))
	p.publishState(context.Background(), state)
	return true
}

// Check runs one poll cycle. The returned error is informational: a failed search is treated
// as "no live stream" for the cycle.
func (p *LivePoller) Check(ctx context.Context) error {
	p.cycle.Lock()
	defer p.cycle.Unlock()

	start := p.now()
	video, err := p.searcher.SearchLive(ctx)
	latency := p.now().Sub(start)

	p.mu.Lock()
	p.lastChecked = p.now()
	p.mu.Unlock()

	if err != nil {
		p.fail(ctx, err, latency)
		video = nil
	}

	switch {
	case video != nil:
		p.metrics.RecordPoll(metrics.PollLive, latency)
		p.activateLive(ctx, video.VideoID, video.Title)
	case err == nil:
		p.metrics.RecordPoll(metrics.PollOffline, latency)
		p.logger.Debug("no live stream right now", "next_check", p.interval)
		fallthrough
	default:
		if p.deactivate(ctx) {
			p.activateFallback(ctx)
		}
	}

	sendUpdate(p.updates, checkedUpdate(p.Status()))
	return err
}

// Load manually activates videoID as the live player.
func (p *LivePoller) Load(ctx context.Context, videoID string) error {
	if videoID == "" {
		return fmt.Errorf("%w: video id is required", shared.ErrInvalidInput)
	}

	p.cycle.Lock()
	defer p.cycle.Unlock()

	p.activateLive(ctx, videoID, "")
	return nil
}

// Status returns a snapshot of the poller.
func (p *LivePoller) Status() models.LiveState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

func (p *LivePoller) statusLocked() models.LiveState {
	return models.LiveState{
		State:         p.state,
		VideoID:       p.videoID,
		Title:         p.title,
		ChannelID:     p.channelID,
		Polling:       p.cancel != nil,
		Interval:      p.interval,
		LastChecked:   p.lastChecked,
		HaltedReason:  p.halted,
		PlayerCreated: p.playerCreated,
	}
}

// fail logs a failed search. Client errors and missing credentials halt polling.
func (p *LivePoller) fail(ctx context.Context, err error, latency time.Duration) {
	apiErr, isAPI := services.AsAPIError(err)
	haltable := (isAPI && apiErr.IsClientError()) || errors.Is(err, shared.ErrMissingCredentials)

	if !haltable {
		p.metrics.RecordPoll(metrics.PollError, latency)
		p.logger.Warn("live search failed", "error", err)
		sendUpdate(p.updates, failedUpdate(p.Status(), err))
		return
	}

	p.metrics.RecordPoll(metrics.PollHalted, latency)
	if isAPI {
		p.logger.Error("live search rejected, halting polling", "status", apiErr.StatusCode, "reason", apiErr.Reason, "error", err)
	} else {
		p.logger.Error("live search misconfigured, halting polling", "error", err)
	}

	p.mu.Lock()
	p.halted = err.Error()
	cancel := p.cancel
	p.cancel, p.done = nil, nil
	state := p.statusLocked()
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.metrics.SetPolling(false)

	p.toast(models.Toast{Message: "⚠️ YouTube API key error, check Google Console", Kind: models.ToastError})
	sendUpdate(p.updates, haltedUpdate(state, fmt.Errorf("%w: %w", shared.ErrPollingHalted, err)))
	p.publishState(ctx, state)
}

// activateLive shows videoID as the live player unless it is already live.
func (p *LivePoller) activateLive(ctx context.Context, videoID, title string) bool {
	p.mu.Lock()
	if p.state == models.StreamLive && p.videoID == videoID {
		p.mu.Unlock()
		return false
	}
	p.state = models.StreamLive
	p.videoID = videoID
	p.title = title
	p.playerCreated = true
	state := p.statusLocked()
	p.mu.Unlock()

	p.player.Load(videoID, models.PlayerOptions{Autoplay: p.autoplay, Muted: p.mutedStart, Live: true})
	p.metrics.SetLive(true)
	p.logger.Info("live player activated", "video_id", videoID, "title", title)

	p.toast(models.Toast{
		Message:  fmt.Sprintf("🔴 %s is LIVE! Enjoy the stream! 🏅", p.eventName),
		Kind:     models.ToastSuccess,
		Duration: liveToastDuration,
	})
	sendUpdate(p.updates, activatedUpdate(state))
	p.publishState(ctx, state)
	p.maybeReload(ctx, state)
	return true
}

// activateFallback shows the configured fallback video without autoplay.
func (p *LivePoller) activateFallback(ctx context.Context) bool {
	if p.fallbackID == "" {
		return false
	}

	p.mu.Lock()
	p.state = models.StreamFallback
	p.videoID = p.fallbackID
	p.title = ""
	p.playerCreated = true
	state := p.statusLocked()
	p.mu.Unlock()

	p.player.Load(p.fallbackID, models.PlayerOptions{Muted: p.mutedStart})
	p.logger.Info("fallback video loaded", "video_id", p.fallbackID)

	sendUpdate(p.updates, fallbackUpdate(state))
	p.publishState(ctx, state)
	return true
}

// deactivate tears the live player down. Only a live stream is deactivated.
func (p *LivePoller) deactivate(ctx context.Context) bool {
	p.mu.Lock()
	if p.state != models.StreamLive {
		p.mu.Unlock()
		return false
	}
	p.state = models.StreamOffline
	p.videoID = ""
	p.title = ""
	p.playerCreated = false
	state := p.statusLocked()
	p.mu.Unlock()

	p.player.Destroy()
	p.metrics.SetLive(false)
	p.logger.Info("stream ended, coming soon restored")

	sendUpdate(p.updates, deactivatedUpdate(state))
	p.publishState(ctx, state)
	return true
}

func (p *LivePoller) maybeReload(ctx context.Context, state models.LiveState) {
	if !p.reloadOnFirstLive || p.sessions == nil {
		return
	}

	if _, ok, err := p.sessions.Get(ctx, reloadSessionKey); err != nil {
		p.logger.Warn("failed to read reload flag", "error", err)
		return
	} else if ok {
		return
	}

	if err := p.sessions.Set(ctx, reloadSessionKey, state.VideoID, p.reloadTTL); err != nil {
		p.logger.Warn("failed to save reload flag", "error", err)
		return
	}

	p.logger.Info("requesting page reload for first live detection", "video_id", state.VideoID)
	p.publish(ctx, models.NewEvent(models.EventPageReload, map[string]string{"video_id": state.VideoID}))
	sendUpdate(p.updates, reloadUpdate(state))
}

func (p *LivePoller) toast(t models.Toast) {
	if p.toaster != nil {
		p.toaster.Toast(t)
	}
}

func (p *LivePoller) publishState(ctx context.Context, state models.LiveState) {
	p.publish(ctx, models.NewEvent(models.EventLiveState, state))
}

func (p *LivePoller) publish(ctx context.Context, e models.Event) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Publish(context.WithoutCancel(ctx), e); err != nil {
		p.logger.Warn("failed to publish event", "type", e.Kind, "error", err)
	}
}
