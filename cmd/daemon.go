package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/tclive/internal/hub"
	"github.com/desertthunder/tclive/internal/metrics"
	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/notify"
	"github.com/desertthunder/tclive/internal/publisher"
	"github.com/desertthunder/tclive/internal/repositories"
	"github.com/desertthunder/tclive/internal/scoreboard"
	"github.com/desertthunder/tclive/internal/services"
	"github.com/desertthunder/tclive/internal/shared"
	"github.com/desertthunder/tclive/internal/tasks"
)

// daemon is the fully wired set of components shared by serve and tui.
type daemon struct {
	db        *sql.DB
	store     *scoreboard.Store
	scores    *repositories.ScoreRepository
	hub       *hub.Hub
	sink      publisher.Sink
	redis     *redis.Client
	metrics   *metrics.Metrics
	poller    *tasks.LivePoller
	scheduler *tasks.ReminderScheduler
	helper    *notify.Helper
	updates   chan tasks.Update
	logger    *log.Logger
}

type daemonOpts struct {
	// Restore replays the latest persisted scores into the store.
	Restore bool

	// Updates enables the poller and reminder status channel.
	Updates bool
}

// newDaemon wires every component from the runner's config. Close releases what it opened.
func (r *Runner) newDaemon(ctx context.Context, opts daemonOpts) (*daemon, error) {
	cfg := r.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := r.openDatabase()
	if err != nil {
		return nil, err
	}

	d := &daemon{
		db:      db,
		scores:  repositories.NewScoreRepository(db),
		metrics: metrics.New(),
		logger:  r.logger,
	}
	if opts.Updates {
		d.updates = make(chan tasks.Update, 100)
	}

	d.store = r.newStore(d.scores, opts.Restore)

	d.hub = hub.New(hub.Options{
		Logger:  shared.WithLogger(r.logger, "component", "hub"),
		Metrics: d.metrics,
		Welcome: d.welcome,
	})

	sinks := publisher.Fanout{d.hub}
	if cfg.Redis.URL != "" {
		client, err := publisher.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			r.logger.Warn("event stream disabled", "error", err)
		} else {
			d.redis = client
			sinks = append(sinks, publisher.NewStreamPublisher(client, cfg.Redis.Stream))
			r.logger.Info("publishing events to redis stream", "stream", cfg.Redis.Stream)
		}
	}
	d.sink = sinks

	d.store.AddRecorder(scoreboard.RecorderFunc(func(u models.ScoreUpdate) error {
		d.metrics.RecordScoreUpdate(u.House)
		return d.sink.Publish(context.Background(), models.NewEvent(models.EventScoreUpdate, u))
	}))

	toaster := hub.NewToaster(d.hub, cfg.Notifications.ToastDuration)

	d.poller = tasks.NewLivePoller(tasks.PollerOpts{
		Searcher:          r.liveSearcher(),
		Player:            hub.NewPlayer(d.hub),
		Toaster:           toaster,
		Sink:              d.sink,
		Sessions:          repositories.NewSessionRepository(db),
		Metrics:           d.metrics,
		Logger:            shared.WithLogger(r.logger, "component", "poller"),
		Updates:           d.updates,
		ChannelID:         cfg.YouTube.ChannelID,
		EventName:         cfg.Event.Name,
		Interval:          cfg.YouTube.CheckInterval,
		Autoplay:          cfg.YouTube.Autoplay,
		MutedStart:        cfg.YouTube.MutedStart,
		FallbackVideoID:   cfg.YouTube.FallbackVideoID,
		ReloadOnFirstLive: cfg.YouTube.ReloadOnFirstLive,
		ReloadTTL:         cfg.YouTube.ReloadSessionTTL,
	})

	d.helper, d.scheduler, err = r.newNotifier(db, toaster, d.metrics, d.updates)
	if err != nil {
		d.Close()
		return nil, err
	}

	return d, nil
}

// newStore creates the scoreboard with the audit trail attached, optionally restoring saved scores.
func (r *Runner) newStore(repo *repositories.ScoreRepository, restore bool) *scoreboard.Store {
	store := scoreboard.NewStore(scoreboard.DefaultHouses(),
		scoreboard.WithErrorHandler(func(err error) {
			r.logger.Warn("score recorder failed", "error", err)
		}),
	)

	if restore {
		latest, err := repo.Latest()
		if err != nil {
			r.logger.Warn("failed to restore scores", "error", err)
		} else if n := store.Restore(latest); n > 0 {
			r.logger.Info("restored scores from database", "count", n)
		}
	}

	store.AddRecorder(repo)
	return store
}

func (r *Runner) liveSearcher() services.LiveSearcher {
	if r.youtube != nil {
		return r.youtube
	}
	cfg := r.config.YouTube
	return services.NewYouTubeService(cfg.BaseURL, cfg.APIKey, cfg.ChannelID, r.httpClient)
}

// newNotifier wires the hosted and native backends, the reminder scheduler and the helper.
func (r *Runner) newNotifier(db *sql.DB, toaster tasks.Toaster, m *metrics.Metrics, updates chan<- tasks.Update) (*notify.Helper, *tasks.ReminderScheduler, error) {
	cfg := r.config

	start, err := cfg.EventStart()
	if err != nil {
		return nil, nil, err
	}
	reminders, err := cfg.ReminderSchedule()
	if err != nil {
		return nil, nil, err
	}

	hosted := services.NewOneSignalService(services.OneSignalOpts{
		BaseURL:    cfg.OneSignal.BaseURL,
		AppID:      cfg.OneSignal.AppID,
		APIKey:     cfg.OneSignal.RESTAPIKey,
		ExternalID: cfg.OneSignalExternalID(),
		SiteURL:    cfg.Event.SiteURL,
		Icon:       cfg.Event.Icon,
		HTTPClient: r.httpClient,
	})
	native := services.NewDesktopNotifier(services.DesktopOpts{
		Store:   repositories.NewPermissionRepository(db),
		Command: cfg.Notifications.DesktopCommand,
		Icon:    cfg.Event.Icon,
	})

	var helper *notify.Helper
	scheduler := tasks.NewReminderScheduler(tasks.ReminderOpts{
		Reminders: reminders,
		Deliver: func(ctx context.Context, n models.Notification) error {
			return helper.Deliver(ctx, n)
		},
		Toaster: toaster,
		Logger:  shared.WithLogger(r.logger, "component", "reminders"),
		Updates: updates,
		Icon:    cfg.Event.Icon,
		URL:     cfg.Event.SiteURL,
	})

	helper = notify.New(notify.Options{
		Hosted:          hosted,
		Native:          native,
		Toaster:         toaster,
		Scheduler:       scheduler,
		Metrics:         m,
		Logger:          shared.WithLogger(r.logger, "component", "notify"),
		Messages:        notify.DefaultMessages(cfg.Event.SiteName, cfg.Event.Name, start),
		EventTag:        cfg.Event.Tag,
		EventStart:      start,
		ToastDuration:   cfg.Notifications.ToastDuration,
		AutoPromptDelay: cfg.Notifications.AutoPromptDelay,
		Now:             r.now,
	})

	return helper, scheduler, nil
}

// welcome is sent to each websocket client as it connects.
func (d *daemon) welcome() []models.Event {
	return []models.Event{
		models.NewEvent(models.EventScoreboard, map[string]any{
			"houses":      d.store.Houses(),
			"rankings":    d.store.Rank(),
			"last_update": d.store.LastUpdate(),
		}),
		models.NewEvent(models.EventLiveState, d.poller.Status()),
	}
}

// Close stops background work and releases connections.
func (d *daemon) Close() error {
	if d.poller != nil {
		d.poller.Stop()
	}
	if d.helper != nil {
		d.helper.Stop()
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.logger.Warn("failed to close redis client", "error", err)
		}
	}
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
