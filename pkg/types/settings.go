package types

// Settings holds user preferences that persist across restarts.
// They are stored in the settings table and surfaced through the settings
// service and the /api/settings endpoints.
type Settings struct {
	// NotificationsEnabled is the global notification switch. When false no
	// detected action produces a notification, regardless of filter.
	NotificationsEnabled bool `json:"notifications_enabled"`

	// NotificationFilter restricts which action types notify.
	NotificationFilter NotificationFilter `json:"notification_filter"`

	// ScreenshotWatchEnabled gates the screenshot intake observer. When
	// disabled the observer still receives change notifications but performs
	// no enqueue.
	ScreenshotWatchEnabled bool `json:"screenshot_watch_enabled"`

	// UserName is the display name for the user.
	UserName string `json:"user_name,omitempty"`
}

// DefaultSettings returns the settings applied before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		NotificationsEnabled:   true,
		NotificationFilter:     NotifyAll,
		ScreenshotWatchEnabled: true,
	}
}
