// YouTube Data API v3 [LiveSearcher] implementation
//
// Uses the search endpoint filtered to live broadcasts on a single channel.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/shared"
)

const defaultYTBaseURL string = "https://www.googleapis.com/youtube/v3"

type youtubeSearchResponse struct {
	Items []youtubeSearchItem `json:"items"`
}

type youtubeSearchItem struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		PublishedAt          time.Time `json:"publishedAt"`
		ChannelID            string    `json:"channelId"`
		Title                string    `json:"title"`
		LiveBroadcastContent string    `json:"liveBroadcastContent"`
	} `json:"snippet"`
}

type youtubeErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// YouTubeService implements [LiveSearcher] against the YouTube Data API.
type YouTubeService struct {
	baseURL    string
	apiKey     string
	channelID  string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube Data API client for one channel.
func NewYouTubeService(baseURL, apiKey, channelID string, client *http.Client) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &YouTubeService{
		baseURL:    baseURL,
		apiKey:     apiKey,
		channelID:  channelID,
		httpClient: client,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// ChannelID returns the channel being watched.
func (y *YouTubeService) ChannelID() string {
	return y.channelID
}

// searchURL builds GET /search?part=snippet&channelId=…&eventType=live&type=video&key=…
func (y *YouTubeService) searchURL() string {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("channelId", y.channelID)
	q.Set("eventType", "live")
	q.Set("type", "video")
	q.Set("key", y.apiKey)
	return y.baseURL + "/search?" + q.Encode()
}

// SearchLive returns the channel's current live broadcast, or nil when there is none.
//
// Non-2xx responses are returned as [*APIError] wrapped in [shared.ErrAPIRequest].
func (y *YouTubeService) SearchLive(ctx context.Context) (*models.LiveVideo, error) {
	if y.apiKey == "" || y.channelID == "" {
		return nil, fmt.Errorf("%w: youtube api_key and channel_id are required", shared.ErrMissingCredentials)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.searchURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Service: "youtube", StatusCode: resp.StatusCode}
		var errResp youtubeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Message = errResp.Error.Message
			if len(errResp.Error.Errors) > 0 {
				apiErr.Reason = errResp.Error.Errors[0].Reason
			}
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, apiErr)
	}

	var result youtubeSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		return &models.LiveVideo{
			VideoID:     item.ID.VideoID,
			Title:       item.Snippet.Title,
			ChannelID:   item.Snippet.ChannelID,
			PublishedAt: item.Snippet.PublishedAt,
		}, nil
	}

	return nil, nil
}

// WatchURL returns the public watch page for a video.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}
