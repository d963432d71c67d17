package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/services"
	"github.com/desertthunder/tclive/internal/shared"
)

// LiveCheck queries the channel once and prints whether it is live.
func (r *Runner) LiveCheck(ctx context.Context, cmd *cli.Command) error {
	video, err := r.liveSearcher().SearchLive(ctx)
	if err != nil {
		if apiErr, ok := services.AsAPIError(err); ok && apiErr.IsClientError() {
			r.logger.Error("live search rejected", "status", apiErr.StatusCode, "reason", apiErr.Reason)
		}
		return fmt.Errorf("live check failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"live":  video != nil,
			"video": video,
		}, cmd.Bool("pretty"))
	}

	if video == nil {
		return r.writePlain("○ %s is offline\n", r.config.YouTube.ChannelID)
	}

	watch := services.WatchURL(video.VideoID)
	r.writePlain("● LIVE: %s\n", video.Title)
	r.writePlain("  %s\n", watch)

	if cmd.Bool("open") {
		if err := shared.OpenBrowser(watch); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}
	return nil
}

// LiveStatus asks a running daemon for its poller state.
func (r *Runner) LiveStatus(ctx context.Context, cmd *cli.Command) error {
	url := fmt.Sprintf("http://%s/api/live", r.daemonAddr())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: is tclive serve running? %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: daemon returned %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var state models.LiveState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(state, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Live stream")
	r.writePlain("State:    %s\n", state.State)
	if state.VideoID != "" {
		r.writePlain("Video:    %s (%s)\n", state.Title, state.VideoID)
	}
	r.writePlain("Polling:  %t (every %s)\n", state.Polling, state.Interval)
	if !state.LastChecked.IsZero() {
		r.writePlain("Checked:  %s\n", state.LastChecked.Local().Format("15:04:05"))
	}
	if state.HaltedReason != "" {
		r.writePlain("Halted:   %s\n", state.HaltedReason)
	}
	return nil
}

// daemonAddr is the configured listen address, with wildcard hosts mapped to loopback.
func (r *Runner) daemonAddr() string {
	host := r.config.Server.Host
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(r.config.Server.Port))
}
