package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/desertthunder/tclive/internal/metrics"
	"github.com/desertthunder/tclive/internal/models"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Scoreboard is the subset of the score store served by the API.
type Scoreboard interface {
	Houses() []models.House
	House(key string) (models.House, bool)
	Rank() []models.Ranking
	Total(house string) int
	Update(house, sport string, score int) error
	SetHouse(house string, scores map[string]int) error
	LastUpdate() time.Time
}

// LiveController drives the live-stream poller.
type LiveController interface {
	Status() models.LiveState
	Check(ctx context.Context) error
	Start(ctx context.Context) bool
	Stop() bool
	Load(ctx context.Context, videoID string) error
}

// Notifier is the notification helper.
type Notifier interface {
	Subscribe(ctx context.Context) bool
	Test(ctx context.Context) error
	Status(ctx context.Context, now time.Time) models.NotifyStatus
}

// Options configures a [Server]. Nil components disable their routes.
type Options struct {
	Addr        string
	Scores      Scoreboard
	Live        LiveController
	Notify      Notifier
	Websocket   http.Handler
	Metrics     *metrics.Metrics
	Logger      *log.Logger
	CORSOrigins []string

	// CheckRate is the minimum spacing of manual live checks. Zero disables the limit.
	CheckRate time.Duration

	Now func() time.Time
}

// Server is the HTTP front of the daemon.
type Server struct {
	addr         string
	scores       Scoreboard
	live         LiveController
	notify       Notifier
	ws           http.Handler
	metrics      *metrics.Metrics
	logger       *log.Logger
	origins      []string
	checkLimiter *rate.Limiter
	checkRate    time.Duration
	now          func() time.Time
	started      time.Time

	// baseCtx outlives requests; polling started over HTTP runs under it.
	baseCtx context.Context
}

// New creates a server. ctx bounds background work started by requests, such as polling.
func New(ctx context.Context, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	limit := rate.Inf
	if opts.CheckRate > 0 {
		limit = rate.Every(opts.CheckRate)
	}

	return &Server{
		addr:         opts.Addr,
		scores:       opts.Scores,
		live:         opts.Live,
		notify:       opts.Notify,
		ws:           opts.Websocket,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		origins:      opts.CORSOrigins,
		checkLimiter: rate.NewLimiter(limit, 1),
		checkRate:    opts.CheckRate,
		now:          opts.Now,
		started:      opts.Now(),
		baseCtx:      ctx,
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.logger, s.metrics))
	r.Use(chimiddleware.Recoverer)

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.HealthCheck)

	if s.ws != nil {
		r.Handle("/ws", s.ws)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(requestTimeout))

		if s.scores != nil {
			r.Route("/scoreboard", func(r chi.Router) {
				r.Get("/", s.GetScoreboard)
				r.Get("/rankings", s.GetRankings)
				r.Get("/{house}/total", s.GetTotal)
				r.Put("/{house}", s.SetHouse)
				r.Put("/{house}/{sport}", s.UpdateScore)
			})
		}

		if s.live != nil {
			r.Route("/live", func(r chi.Router) {
				r.Get("/", s.GetLive)
				r.Post("/check", s.CheckLive)
				r.Post("/start", s.StartLive)
				r.Post("/stop", s.StopLive)
				r.Post("/load", s.LoadLive)
			})
		}

		if s.notify != nil {
			r.Route("/notify", func(r chi.Router) {
				r.Post("/enable", s.EnableNotifications)
				r.Post("/test", s.TestNotification)
				r.Get("/status", s.NotifyStatus)
			})
		}
	})

	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
