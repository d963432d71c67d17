// OneSignal REST API [Notifier] implementation
//
// Subscribers are addressed by external_id alias. "Permission" for the hosted backend means
// the subscriber exists in the OneSignal app.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/shared"
)

const defaultOneSignalBaseURL = "https://api.onesignal.com"

// OneSignalService implements [Notifier] and [Tagger] for a single subscriber.
type OneSignalService struct {
	baseURL    string
	appID      string
	apiKey     string
	externalID string
	siteURL    string
	icon       string
	httpClient *http.Client
}

// OneSignalOpts configures [NewOneSignalService].
type OneSignalOpts struct {
	BaseURL    string
	AppID      string
	APIKey     string
	ExternalID string
	SiteURL    string
	Icon       string
	HTTPClient *http.Client
}

// NewOneSignalService creates a OneSignal client bound to one subscriber.
func NewOneSignalService(opts OneSignalOpts) *OneSignalService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultOneSignalBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &OneSignalService{
		baseURL:    opts.BaseURL,
		appID:      opts.AppID,
		apiKey:     opts.APIKey,
		externalID: opts.ExternalID,
		siteURL:    opts.SiteURL,
		icon:       opts.Icon,
		httpClient: opts.HTTPClient,
	}
}

// Name returns the backend name.
func (o *OneSignalService) Name() string {
	return "onesignal"
}

// Ready reports whether app credentials and a subscriber ID are configured.
func (o *OneSignalService) Ready() bool {
	return o.appID != "" && o.apiKey != "" && o.externalID != ""
}

func (o *OneSignalService) userPath() string {
	return fmt.Sprintf("/apps/%s/users/by/external_id/%s", url.PathEscape(o.appID), url.PathEscape(o.externalID))
}

func (o *OneSignalService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if !o.Ready() {
		return fmt.Errorf("%w: onesignal app_id, rest_api_key and subscriber id are required", shared.ErrMissingCredentials)
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, o.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Service: "onesignal", StatusCode: resp.StatusCode}
		var errResp struct {
			Errors []any `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && len(errResp.Errors) > 0 {
			apiErr.Message = fmt.Sprint(errResp.Errors[0])
		}
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, apiErr)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Permission looks the subscriber up: found → granted, 404 → default.
func (o *OneSignalService) Permission(ctx context.Context) (models.Permission, error) {
	var user struct {
		Subscriptions []struct {
			Enabled bool `json:"enabled"`
		} `json:"subscriptions"`
	}

	err := o.doRequest(ctx, http.MethodGet, o.userPath(), nil, &user)
	if apiErr, ok := AsAPIError(err); ok && apiErr.StatusCode == http.StatusNotFound {
		return models.PermissionDefault, nil
	}
	if err != nil {
		return models.PermissionDefault, err
	}

	for _, sub := range user.Subscriptions {
		if sub.Enabled {
			return models.PermissionGranted, nil
		}
	}
	if len(user.Subscriptions) > 0 {
		return models.PermissionDenied, nil
	}
	return models.PermissionGranted, nil
}

// RequestPermission registers the subscriber and then re-reads its permission.
func (o *OneSignalService) RequestPermission(ctx context.Context) (bool, error) {
	body := map[string]any{
		"identity": map[string]string{"external_id": o.externalID},
	}

	err := o.doRequest(ctx, http.MethodPost, fmt.Sprintf("/apps/%s/users", url.PathEscape(o.appID)), body, nil)
	if apiErr, ok := AsAPIError(err); ok && apiErr.StatusCode == http.StatusConflict {
		err = nil
	}
	if err != nil {
		return false, err
	}

	p, err := o.Permission(ctx)
	if err != nil {
		return false, err
	}
	return p == models.PermissionGranted, nil
}

// AddTags merges tags into the subscriber's properties.
func (o *OneSignalService) AddTags(ctx context.Context, tags map[string]string) error {
	body := map[string]any{
		"properties": map[string]any{"tags": tags},
	}
	return o.doRequest(ctx, http.MethodPatch, o.userPath(), body, nil)
}

// Send pushes a notification to this subscriber.
func (o *OneSignalService) Send(ctx context.Context, n models.Notification) error {
	link := n.URL
	if link == "" {
		link = o.siteURL
	}
	icon := n.Icon
	if icon == "" {
		icon = o.icon
	}

	body := map[string]any{
		"app_id":          o.appID,
		"target_channel":  "push",
		"include_aliases": map[string][]string{"external_id": {o.externalID}},
		"headings":        map[string]string{"en": n.Title},
		"contents":        map[string]string{"en": n.Body},
	}
	if link != "" {
		body["url"] = link
	}
	if icon != "" {
		body["chrome_web_icon"] = icon
	}
	if n.Tag != "" {
		body["web_push_topic"] = n.Tag
	}

	var resp struct {
		ID string `json:"id"`
	}
	return o.doRequest(ctx, http.MethodPost, "/notifications", body, &resp)
}
