package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/services"
	"github.com/desertthunder/tclive/internal/shared"
	tu "github.com/desertthunder/tclive/internal/testing"
)

func forbidden() tu.SearchResult {
	apiErr := &services.APIError{Service: "youtube", StatusCode: http.StatusForbidden, Reason: "quotaExceeded"}
	return tu.SearchResult{Err: fmt.Errorf("%w: %w", shared.ErrAPIRequest, apiErr)}
}

func unavailable() tu.SearchResult {
	apiErr := &services.APIError{Service: "youtube", StatusCode: http.StatusServiceUnavailable}
	return tu.SearchResult{Err: fmt.Errorf("%w: %w", shared.ErrAPIRequest, apiErr)}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

type pollerFixture struct {
	searcher *tu.MockSearcher
	player   *tu.MockPlayer
	toaster  *tu.MockToaster
	sink     *tu.MockSink
	poller   *LivePoller
}

func newPollerFixture(opts PollerOpts, results ...tu.SearchResult) *pollerFixture {
	f := &pollerFixture{
		searcher: tu.NewMockSearcher(results...),
		player:   &tu.MockPlayer{},
		toaster:  &tu.MockToaster{},
		sink:     &tu.MockSink{},
	}
	opts.Searcher = f.searcher
	opts.Player = f.player
	opts.Toaster = f.toaster
	opts.Sink = f.sink
	f.poller = NewLivePoller(opts)
	return f
}

func TestLivePoller(t *testing.T) {
	ctx := context.Background()

	t.Run("NewLivePoller", func(t *testing.T) {
		f := newPollerFixture(PollerOpts{})
		s := f.poller.Status()
		if s.State != models.StreamOffline {
			t.Errorf("expected offline, got %s", s.State)
		}
		if s.Interval != defaultCheckInterval {
			t.Errorf("expected default interval, got %s", s.Interval)
		}
		if s.Polling || s.PlayerCreated {
			t.Errorf("expected idle poller, got %+v", s)
		}
	})

	t.Run("Check", func(t *testing.T) {
		t.Run("activates and deactivates once per transition", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{Autoplay: true},
				tu.Offline(), tu.Live("abc"), tu.Live("abc"), tu.Offline())

			for i := 0; i < 4; i++ {
				if err := f.poller.Check(ctx); err != nil {
					t.Fatalf("check %d: expected no error, got %v", i, err)
				}
			}

			loads, destroys := f.player.Counts()
			if loads != 1 {
				t.Errorf("expected 1 activation, got %d", loads)
			}
			if destroys != 1 {
				t.Errorf("expected 1 deactivation, got %d", destroys)
			}
			if f.player.Loads[0].VideoID != "abc" {
				t.Errorf("expected abc loaded, got %s", f.player.Loads[0].VideoID)
			}
			if !f.player.Loads[0].Options.Autoplay || !f.player.Loads[0].Options.Live {
				t.Errorf("expected live autoplay options, got %+v", f.player.Loads[0].Options)
			}
			if s := f.poller.Status(); s.State != models.StreamOffline || s.VideoID != "" {
				t.Errorf("expected offline with no video, got %+v", s)
			}
		})

		t.Run("different live id loads new player", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{}, tu.Live("abc"), tu.Live("def"))
			f.poller.Check(ctx)
			f.poller.Check(ctx)

			loads, destroys := f.player.Counts()
			if loads != 2 || destroys != 0 {
				t.Errorf("expected 2 loads and no destroys, got %d/%d", loads, destroys)
			}
			if s := f.poller.Status(); s.VideoID != "def" {
				t.Errorf("expected def, got %s", s.VideoID)
			}
		})

		t.Run("shows live toast", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{EventName: "Interhouse Sports Meet"}, tu.Live("abc"))
			f.poller.Check(ctx)

			toast := f.toaster.Last()
			if toast.Kind != models.ToastSuccess {
				t.Errorf("expected success toast, got %s", toast.Kind)
			}
			if toast.Message != "🔴 Interhouse Sports Meet is LIVE! Enjoy the stream! 🏅" {
				t.Errorf("unexpected toast %q", toast.Message)
			}
		})

		t.Run("empty result while offline is a no-op", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{FallbackVideoID: "promo"}, tu.Offline())
			f.poller.Check(ctx)

			if loads, destroys := f.player.Counts(); loads != 0 || destroys != 0 {
				t.Errorf("expected no player changes, got %d/%d", loads, destroys)
			}
		})

		t.Run("stream end falls back when configured", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{FallbackVideoID: "promo"}, tu.Live("abc"), tu.Offline())
			f.poller.Check(ctx)
			f.poller.Check(ctx)

			s := f.poller.Status()
			if s.State != models.StreamFallback || s.VideoID != "promo" {
				t.Errorf("expected fallback promo, got %+v", s)
			}
			last := f.player.Loads[len(f.player.Loads)-1]
			if last.VideoID != "promo" || last.Options.Autoplay || last.Options.Live {
				t.Errorf("expected non-autoplay fallback load, got %+v", last)
			}
		})

		t.Run("server error counts as offline and keeps polling state", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{}, tu.Live("abc"), unavailable())
			f.poller.Check(ctx)

			err := f.poller.Check(ctx)
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			s := f.poller.Status()
			if s.State != models.StreamOffline {
				t.Errorf("expected offline after failed cycle, got %s", s.State)
			}
			if s.HaltedReason != "" {
				t.Errorf("expected no halt for 5xx, got %s", s.HaltedReason)
			}
		})

		t.Run("records last checked", func(t *testing.T) {
			now := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
			f := newPollerFixture(PollerOpts{Now: func() time.Time { return now }}, tu.Offline())
			f.poller.Check(ctx)

			if got := f.poller.Status().LastChecked; !got.Equal(now) {
				t.Errorf("expected last checked %s, got %s", now, got)
			}
		})

		t.Run("publishes state transitions", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{}, tu.Live("abc"), tu.Offline())
			f.poller.Check(ctx)
			f.poller.Check(ctx)

			kinds := f.sink.Kinds()
			if len(kinds) != 2 {
				t.Fatalf("expected 2 events, got %v", kinds)
			}
			for _, k := range kinds {
				if k != models.EventLiveState {
					t.Errorf("expected live.state events, got %s", k)
				}
			}
		})
	})

	t.Run("Load", func(t *testing.T) {
		t.Run("activates manually", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{})
			if err := f.poller.Load(ctx, "manual"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if s := f.poller.Status(); s.State != models.StreamLive || s.VideoID != "manual" {
				t.Errorf("expected live manual, got %+v", s)
			}
		})

		t.Run("requires video id", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{})
			if err := f.poller.Load(ctx, ""); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	})

	t.Run("Start", func(t *testing.T) {
		t.Run("polls immediately and is idempotent", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{Interval: time.Hour}, tu.Live("abc"))

			if !f.poller.Start(ctx) {
				t.Fatal("expected first Start to start polling")
			}
			defer f.poller.Stop()

			if f.poller.Start(ctx) {
				t.Error("expected second Start to be a no-op")
			}

			waitFor(t, func() bool { return f.searcher.CallCount() == 1 })
			waitFor(t, func() bool { return f.poller.Status().State == models.StreamLive })
			if !f.poller.Status().Polling {
				t.Error("expected polling to be reported")
			}
		})

		t.Run("polls on interval", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{Interval: 10 * time.Millisecond}, tu.Offline())
			f.poller.Start(ctx)
			defer f.poller.Stop()

			waitFor(t, func() bool { return f.searcher.CallCount() >= 3 })
		})

		t.Run("Stop", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{Interval: 10 * time.Millisecond}, tu.Offline())
			f.poller.Start(ctx)
			waitFor(t, func() bool { return f.searcher.CallCount() >= 1 })

			if !f.poller.Stop() {
				t.Fatal("expected Stop to stop a running poller")
			}
			calls := f.searcher.CallCount()
			time.Sleep(50 * time.Millisecond)

			if got := f.searcher.CallCount(); got != calls {
				t.Errorf("expected no polls after Stop, got %d more", got-calls)
			}
			if f.poller.Stop() {
				t.Error("expected second Stop to report not running")
			}
		})

		t.Run("403 halts polling", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{Interval: 10 * time.Millisecond}, forbidden())
			f.poller.Start(ctx)

			waitFor(t, func() bool { return !f.poller.Status().Polling })
			calls := f.searcher.CallCount()
			time.Sleep(50 * time.Millisecond)

			if got := f.searcher.CallCount(); got != calls {
				t.Errorf("expected no polls after halt, got %d more", got-calls)
			}
			if calls != 1 {
				t.Errorf("expected exactly one poll before halt, got %d", calls)
			}

			s := f.poller.Status()
			if s.HaltedReason == "" {
				t.Error("expected halted reason")
			}
			if toast := f.toaster.Last(); toast.Kind != models.ToastError {
				t.Errorf("expected error toast, got %+v", toast)
			}
		})

		t.Run("restarts after halt", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{Interval: time.Hour}, forbidden(), tu.Live("abc"))
			f.poller.Start(ctx)
			waitFor(t, func() bool { return f.searcher.CallCount() == 1 && !f.poller.Status().Polling })

			if !f.poller.Start(ctx) {
				t.Fatal("expected Start after halt to resume polling")
			}
			defer f.poller.Stop()

			waitFor(t, func() bool { return f.poller.Status().State == models.StreamLive })
			if f.poller.Status().HaltedReason != "" {
				t.Error("expected halted reason to clear on restart")
			}
		})

		t.Run("missing credentials halts polling", func(t *testing.T) {
			f := newPollerFixture(PollerOpts{Interval: 10 * time.Millisecond},
				tu.SearchResult{Err: shared.ErrMissingCredentials})
			f.poller.Start(ctx)
			waitFor(t, func() bool { return !f.poller.Status().Polling })
		})
	})

	t.Run("Boot", func(t *testing.T) {
		f := newPollerFixture(PollerOpts{FallbackVideoID: "promo", Interval: time.Hour}, tu.Offline())
		f.poller.Boot(ctx)
		defer f.poller.Stop()

		if len(f.player.Loads) == 0 || f.player.Loads[0].VideoID != "promo" {
			t.Fatalf("expected fallback shown before polling, got %+v", f.player.Loads)
		}
		waitFor(t, func() bool { return f.searcher.CallCount() == 1 })
		if s := f.poller.Status(); s.State != models.StreamFallback {
			t.Errorf("expected fallback to remain while offline, got %s", s.State)
		}
	})

	t.Run("reload on first live", func(t *testing.T) {
		sessions := tu.NewSessionStore()
		opts := PollerOpts{ReloadOnFirstLive: true, Sessions: sessions}
		f := newPollerFixture(opts, tu.Live("abc"), tu.Offline(), tu.Live("def"))

		f.poller.Check(ctx)
		f.poller.Check(ctx)
		f.poller.Check(ctx)

		reloads := 0
		for _, k := range f.sink.Kinds() {
			if k == models.EventPageReload {
				reloads++
			}
		}
		if reloads != 1 {
			t.Errorf("expected exactly one page reload, got %d", reloads)
		}
		if v, ok, _ := sessions.Get(ctx, reloadSessionKey); !ok || v != "abc" {
			t.Errorf("expected reload flag for abc, got %q (ok=%v)", v, ok)
		}
	})

	t.Run("emits updates without blocking", func(t *testing.T) {
		updates := make(chan Update, 1)
		f := newPollerFixture(PollerOpts{Updates: updates}, tu.Live("abc"), tu.Offline())
		f.poller.Check(ctx)
		f.poller.Check(ctx)

		u := <-updates
		if u.Phase != LiveActivated {
			t.Errorf("expected first update to be live_activated, got %s", u.Phase)
		}
	})
}
