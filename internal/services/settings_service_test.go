package services_test

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/scrypster/recall/internal/services"
	"github.com/scrypster/recall/internal/storage/sqlite"
	"github.com/scrypster/recall/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(sqlite.Schema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGet_DefaultsWhenUnset(t *testing.T) {
	svc := services.NewSettingsService(openTestDB(t), false)

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.True(t, settings.NotificationsEnabled)
	assert.Equal(t, types.NotifyAll, settings.NotificationFilter)
	assert.True(t, settings.ScreenshotWatchEnabled)
}

func TestSaveAndGet_RoundTrip(t *testing.T) {
	svc := services.NewSettingsService(openTestDB(t), false)

	err := svc.Save(types.Settings{
		NotificationsEnabled:   false,
		NotificationFilter:     types.NotifyEvents,
		ScreenshotWatchEnabled: false,
	})
	require.NoError(t, err)

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.False(t, settings.NotificationsEnabled)
	assert.Equal(t, types.NotifyEvents, settings.NotificationFilter)
	assert.False(t, settings.ScreenshotWatchEnabled)
}

func TestSave_UpsertsExistingKeys(t *testing.T) {
	svc := services.NewSettingsService(openTestDB(t), false)

	require.NoError(t, svc.Save(types.Settings{
		NotificationsEnabled:   true,
		NotificationFilter:     types.NotifyTodos,
		ScreenshotWatchEnabled: true,
	}))
	require.NoError(t, svc.Save(types.Settings{
		NotificationsEnabled:   true,
		NotificationFilter:     types.NotifyAll,
		ScreenshotWatchEnabled: true,
	}))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, types.NotifyAll, settings.NotificationFilter)
}

func TestSave_RejectsInvalidFilter(t *testing.T) {
	svc := services.NewSettingsService(openTestDB(t), false)

	err := svc.Save(types.Settings{
		NotificationsEnabled: true,
		NotificationFilter:   "everything",
	})
	assert.Error(t, err)
}

func TestGet_IgnoresCorruptFilterValue(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec("INSERT INTO settings (key, value) VALUES ('notification_filter', 'garbage')")
	require.NoError(t, err)

	svc := services.NewSettingsService(db, false)
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, types.NotifyAll, settings.NotificationFilter,
		"unknown stored filter falls back to the default")
}
