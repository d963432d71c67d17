package server

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/tclive/internal/shared"
)

// ScoreRequest is the body of PUT /api/scoreboard/{house}/{sport}.
type ScoreRequest struct {
	Score *int `json:"score"`
}

// HouseRequest is the body of PUT /api/scoreboard/{house}.
type HouseRequest struct {
	Scores map[string]int `json:"scores"`
}

// HealthCheck reports liveness and a summary of each component.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	body := map[string]any{
		"status":    "healthy",
		"service":   "tclive",
		"timestamp": now.UTC(),
		"uptime":    now.Sub(s.started).Round(time.Second).String(),
	}
	if s.live != nil {
		body["live"] = s.live.Status().State
	}
	if s.scores != nil {
		body["last_score_update"] = s.scores.LastUpdate().UTC()
	}

	s.respondJSON(w, http.StatusOK, body)
}

// GetScoreboard returns every house with its scores, plus the current standings.
func (s *Server) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"houses":      s.scores.Houses(),
		"rankings":    s.scores.Rank(),
		"last_update": s.scores.LastUpdate().UTC(),
	})
}

// GetRankings returns houses ordered by descending total.
func (s *Server) GetRankings(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"rankings":    s.scores.Rank(),
		"last_update": s.scores.LastUpdate().UTC(),
	})
}

// GetTotal returns one house's total.
func (s *Server) GetTotal(w http.ResponseWriter, r *http.Request) {
	house, ok := s.scores.House(chi.URLParam(r, "house"))
	if !ok {
		s.respondErr(w, fmt.Errorf("%w: house %q", shared.ErrInvalidIdentifier, chi.URLParam(r, "house")))
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"house": house.Key,
		"name":  house.Name,
		"total": s.scores.Total(house.Key),
	})
}

// UpdateScore overwrites one sport score of a house.
func (s *Server) UpdateScore(w http.ResponseWriter, r *http.Request) {
	houseKey := chi.URLParam(r, "house")
	sport := chi.URLParam(r, "sport")
	if r.URL.RawPath != "" {
		// chi matched the escaped path
		unescaped, err := url.PathUnescape(sport)
		if err != nil {
			s.respondErr(w, fmt.Errorf("%w: sport: %v", shared.ErrInvalidInput, err))
			return
		}
		sport = unescaped
	}

	var req ScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	if req.Score == nil {
		s.respondErr(w, fmt.Errorf("%w: score is required", shared.ErrInvalidScore))
		return
	}
	if *req.Score < 0 {
		s.respondErr(w, fmt.Errorf("%w: %d is negative", shared.ErrInvalidScore, *req.Score))
		return
	}

	if err := s.scores.Update(houseKey, sport, *req.Score); err != nil {
		s.respondErr(w, err)
		return
	}

	house, _ := s.scores.House(houseKey)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"house": house.Key,
		"sport": sport,
		"score": *req.Score,
		"total": s.scores.Total(house.Key),
	})
}

// SetHouse overwrites several sport scores of a house at once.
func (s *Server) SetHouse(w http.ResponseWriter, r *http.Request) {
	houseKey := chi.URLParam(r, "house")

	var req HouseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	if len(req.Scores) == 0 {
		s.respondErr(w, fmt.Errorf("%w: scores are required", shared.ErrInvalidScore))
		return
	}
	for sport, score := range req.Scores {
		if score < 0 {
			s.respondErr(w, fmt.Errorf("%w: %s score %d is negative", shared.ErrInvalidScore, sport, score))
			return
		}
	}

	if err := s.scores.SetHouse(houseKey, req.Scores); err != nil {
		s.respondErr(w, err)
		return
	}

	house, _ := s.scores.House(houseKey)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"house": house,
		"total": s.scores.Total(house.Key),
	})
}

// GetLive returns the poller state.
func (s *Server) GetLive(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.live.Status())
}

// CheckLive runs one poll cycle now. Failed searches still answer 200 with the error attached.
func (s *Server) CheckLive(w http.ResponseWriter, r *http.Request) {
	if !s.checkLimiter.Allow() {
		s.respondErr(w, fmt.Errorf("%w: live checks are limited to one per %s", shared.ErrRateLimited, s.checkRate))
		return
	}

	body := map[string]any{}
	if err := s.live.Check(r.Context()); err != nil {
		body["error"] = err.Error()
	}
	body["state"] = s.live.Status()

	s.respondJSON(w, http.StatusOK, body)
}

// StartLive starts automatic polling.
func (s *Server) StartLive(w http.ResponseWriter, r *http.Request) {
	started := s.live.Start(s.baseCtx)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"started": started,
		"state":   s.live.Status(),
	})
}

// StopLive stops automatic polling.
func (s *Server) StopLive(w http.ResponseWriter, r *http.Request) {
	stopped := s.live.Stop()
	s.respondJSON(w, http.StatusOK, map[string]any{
		"stopped": stopped,
		"state":   s.live.Status(),
	})
}

// LoadLive manually loads a video into the player.
func (s *Server) LoadLive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VideoID string `json:"video_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	if err := s.live.Load(r.Context(), req.VideoID); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.live.Status())
}

// EnableNotifications runs the subscribe flow.
func (s *Server) EnableNotifications(w http.ResponseWriter, r *http.Request) {
	subscribed := s.notify.Subscribe(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]any{
		"subscribed": subscribed,
		"status":     s.notify.Status(r.Context(), s.now()),
	})
}

// TestNotification sends a test notification.
func (s *Server) TestNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.notify.Test(r.Context()); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"sent": true})
}

// NotifyStatus summarizes the notification helper.
func (s *Server) NotifyStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.notify.Status(r.Context(), s.now()))
}
