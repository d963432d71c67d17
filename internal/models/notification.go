package models

import "time"

// Permission mirrors the browser notification permission states.
type Permission string

const (
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

// ToastKind selects toast styling on the page.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

// Toast is a transient on-screen status message.
type Toast struct {
	Message  string        `json:"message"`
	Kind     ToastKind     `json:"kind"`
	Duration time.Duration `json:"duration"`
}

// Notification is a push or desktop notification.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
	Icon  string `json:"icon,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Reminder is a fixed calendar notification armed once per boot.
type Reminder struct {
	At    time.Time `json:"at"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
	Tag   string    `json:"tag"`
}

// NotifyStatus summarizes the notification helper.
type NotifyStatus struct {
	Subscribed       bool       `json:"subscribed"`
	HostedReady      bool       `json:"hosted_ready"`
	HostedBackend    string     `json:"hosted_backend,omitempty"`
	NativePermission Permission `json:"native_permission"`
	HoursToEvent     int        `json:"hours_to_event"`
	ArmedReminders   int        `json:"armed_reminders"`
}
