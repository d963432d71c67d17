// package services defines clients for the hosted APIs the companion service talks to
//
// YouTube Data API (live search), OneSignal (hosted push), desktop notifications (native fallback)
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/tclive/internal/models"
)

// LiveSearcher finds the current live broadcast on a channel.
type LiveSearcher interface {
	// SearchLive returns the first live broadcast, or nil when the channel is not live.
	SearchLive(ctx context.Context) (*models.LiveVideo, error)
}

// Notifier is a notification backend that can ask for permission and deliver notifications.
type Notifier interface {
	// Name returns the backend name (e.g., "onesignal", "desktop").
	Name() string

	// Ready reports whether the backend is configured and reachable enough to try.
	Ready() bool

	// Permission returns the current permission without prompting.
	Permission(ctx context.Context) (models.Permission, error)

	// RequestPermission prompts (or registers) and reports whether permission was granted.
	RequestPermission(ctx context.Context) (bool, error)

	// Send delivers a notification. Fails with [shared.ErrPermissionDenied] when not granted.
	Send(ctx context.Context, n models.Notification) error
}

// Tagger is implemented by hosted backends that segment subscribers with tags.
type Tagger interface {
	AddTags(ctx context.Context, tags map[string]string) error
}

// PermissionStore persists native permission decisions per backend.
type PermissionStore interface {
	GetPermission(ctx context.Context, backend string) (models.Permission, error)
	SetPermission(ctx context.Context, backend string, p models.Permission) error
}

// APIError is a non-2xx response from a hosted API.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Reason     string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s API error (status %d, %s): %s", e.Service, e.StatusCode, e.Reason, msg)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, msg)
}

// IsClientError reports whether the status is in the 4xx range (bad key, forbidden, quota).
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// AsAPIError unwraps err to an [APIError].
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
