// Package services holds application services that sit between the HTTP
// handlers and storage.
package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/scrypster/recall/pkg/types"
)

const (
	keyNotificationsEnabled   = "notifications_enabled"
	keyNotificationFilter     = "notification_filter"
	keyScreenshotWatchEnabled = "screenshot_watch_enabled"
	keyUserName               = "user_name"
)

// SettingsService manages user settings persisted in the settings table.
// Settings survive restarts and take effect without one: the engine and
// watcher read through this service on every decision.
type SettingsService struct {
	db       *sql.DB
	postgres bool
}

// NewSettingsService creates a settings service on top of the given database.
// Set postgres to true when the connection uses $n placeholders.
func NewSettingsService(db *sql.DB, postgres bool) *SettingsService {
	return &SettingsService{db: db, postgres: postgres}
}

// Get returns the current settings, falling back to defaults for keys that
// have never been written.
func (s *SettingsService) Get() (types.Settings, error) {
	settings := types.DefaultSettings()

	if v, ok, err := s.getSetting(keyNotificationsEnabled); err != nil {
		return settings, err
	} else if ok {
		settings.NotificationsEnabled = v == "true"
	}

	if v, ok, err := s.getSetting(keyNotificationFilter); err != nil {
		return settings, err
	} else if ok {
		filter := types.NotificationFilter(v)
		if types.IsValidNotificationFilter(filter) {
			settings.NotificationFilter = filter
		}
	}

	if v, ok, err := s.getSetting(keyScreenshotWatchEnabled); err != nil {
		return settings, err
	} else if ok {
		settings.ScreenshotWatchEnabled = v == "true"
	}

	if v, ok, err := s.getSetting(keyUserName); err != nil {
		return settings, err
	} else if ok {
		settings.UserName = v
	}

	return settings, nil
}

// Save validates and persists the full settings document.
func (s *SettingsService) Save(settings types.Settings) error {
	if !types.IsValidNotificationFilter(settings.NotificationFilter) {
		return fmt.Errorf("services: invalid notification filter %q", settings.NotificationFilter)
	}

	if err := s.setSetting(keyNotificationsEnabled, strconv.FormatBool(settings.NotificationsEnabled)); err != nil {
		return err
	}
	if err := s.setSetting(keyNotificationFilter, string(settings.NotificationFilter)); err != nil {
		return err
	}
	if err := s.setSetting(keyScreenshotWatchEnabled, strconv.FormatBool(settings.ScreenshotWatchEnabled)); err != nil {
		return err
	}
	return s.setSetting(keyUserName, settings.UserName)
}

// getSetting retrieves a single value by key. The second return value is
// false when the key has never been written.
func (s *SettingsService) getSetting(key string) (string, bool, error) {
	query := "SELECT value FROM settings WHERE key = ?"
	if s.postgres {
		query = "SELECT value FROM settings WHERE key = $1"
	}

	var value string
	err := s.db.QueryRow(query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("services: failed to load setting %q: %w", key, err)
	}
	return value, true, nil
}

// setSetting writes a key-value pair using upsert semantics.
func (s *SettingsService) setSetting(key, value string) error {
	query := `
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`
	if s.postgres {
		query = `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = NOW()`
	}

	if _, err := s.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("services: failed to save setting %q: %w", key, err)
	}
	return nil
}
