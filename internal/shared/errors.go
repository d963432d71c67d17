package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Notification errors
	ErrPermissionDenied = fmt.Errorf("notification permission denied")
	ErrUnsupported      = fmt.Errorf("notifications unsupported")
	ErrNotSubscribed    = fmt.Errorf("not subscribed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPollingHalted      = fmt.Errorf("live polling halted")
	ErrRateLimited        = fmt.Errorf("rate limited")

	// Scoreboard errors
	ErrInvalidIdentifier = fmt.Errorf("invalid identifier")
	ErrInvalidScore      = fmt.Errorf("invalid score")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
