package notify

import (
	"fmt"
	"time"

	"github.com/desertthunder/tclive/internal/models"
)

// Messages is the user-facing copy of the notification helper.
type Messages struct {
	AlreadyOn  string
	Blocked    string
	Enabled    string
	Failed     string
	AutoPrompt string
	EventToday string
	EventLive  string
	TestSent   string
	TestFailed string
	Welcome    models.Notification
	Test       models.Notification
}

// DefaultMessages builds the standard copy for an event starting at start.
func DefaultMessages(siteName, eventName string, start time.Time) Messages {
	day := start.Format("January 2")
	clock := start.Format("3:04 PM")

	return Messages{
		AlreadyOn:  fmt.Sprintf("🔔 Notifications are already ON! You'll be reminded on %s.", day),
		Blocked:    "❌ Notifications are blocked. Go to Settings → Notifications to allow them.",
		Enabled:    fmt.Sprintf("✅ Notifications enabled! We'll ping you on %s.", day),
		Failed:     "⚠️ Could not enable notifications. Please try again.",
		AutoPrompt: fmt.Sprintf("🔔 Get notified when Sports Meet goes LIVE on %s! Tap the 🔔 bell to enable.", day),
		EventToday: fmt.Sprintf("🏃 Sports Meet is TODAY! Live stream starts at %s. Stay tuned!", clock),
		EventLive:  fmt.Sprintf("🔴 LIVE NOW — %s! Tap to watch!", eventName),
		TestSent:   "✅ Test notification sent to your device!",
		TestFailed: "⚠️ Could not send a test notification. Enable notifications first.",
		Welcome: models.Notification{
			Title: fmt.Sprintf("🏆 You're in! %s", siteName),
			Body:  fmt.Sprintf("We'll remind you when the %s goes LIVE on %s at %s.", eventName, day, clock),
			Tag:   WelcomeTag,
		},
		Test: models.Notification{
			Title: fmt.Sprintf("🧪 %s Test Notification", siteName),
			Body:  "Push notifications are working! 🎉",
			Tag:   TestTag,
		},
	}
}
