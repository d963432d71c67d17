// Package services implements the hosted and local backends the companion service talks to.
//
// # Live search
//
// [YouTubeService] implements [LiveSearcher] using the YouTube Data API v3 search endpoint
// filtered to live broadcasts (eventType=live, type=video) on a single channel.
// A nil video with a nil error means the channel is not live.
//
// # Notification backends
//
// Both backends implement [Notifier]:
//   - [OneSignalService] is the hosted push backend. It addresses one subscriber by external_id,
//     creates the user on RequestPermission, and also implements [Tagger].
//   - [DesktopNotifier] is the native fallback. It runs notify-send, osascript or powershell and
//     keeps its permission decision in a [PermissionStore]. A denied decision is never overwritten
//     by RequestPermission.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrMissingCredentials] : api key, app id or channel not configured
//   - [shared.ErrAPIRequest] : transport failure or non-2xx response
//   - [shared.ErrPermissionDenied] : Send without granted permission
//
// Non-2xx responses also wrap an [*APIError] with the status code; [APIError.IsClientError]
// identifies 4xx responses (invalid key, forbidden, quota exceeded) that should halt polling.
package services
