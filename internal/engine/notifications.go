package engine

import (
	"log"

	"github.com/scrypster/recall/pkg/types"
)

// Dispatcher delivers a notification for one detected action. Delivery is
// external to the engine (push service, websocket, OS notification); the
// engine only decides whether an action qualifies.
type Dispatcher interface {
	Notify(action types.Action, memoryID int64)
}

// LogDispatcher is the default dispatcher: it just logs. Useful in headless
// deployments and tests.
type LogDispatcher struct{}

// Notify logs the action instead of delivering it anywhere.
func (d *LogDispatcher) Notify(action types.Action, memoryID int64) {
	log.Printf("notify: %s from memory %d: %s", action.Type, memoryID, action.Description)
}

// dispatchNotifications filters the extracted actions against the current
// user settings and hands qualifying ones to the dispatcher, fire-and-forget.
func (e *Engine) dispatchNotifications(actions []types.Action, memoryID int64) {
	if e.dispatcher == nil || len(actions) == 0 {
		return
	}

	settings := types.DefaultSettings()
	if e.settings != nil {
		loaded, err := e.settings.Get()
		if err != nil {
			log.Printf("engine: WARNING: failed to load settings, using defaults: %v", err)
		} else {
			settings = loaded
		}
	}

	for _, action := range actions {
		if !shouldNotify(settings, action) {
			continue
		}
		e.dispatcher.Notify(action, memoryID)
	}
}

// shouldNotify applies the master toggle and the type filter. Reminders are
// grouped with todos for filtering purposes.
func shouldNotify(settings types.Settings, action types.Action) bool {
	if !settings.NotificationsEnabled {
		return false
	}
	switch settings.NotificationFilter {
	case types.NotifyEvents:
		return action.Type == types.ActionEvent
	case types.NotifyTodos:
		return action.Type == types.ActionTodo || action.Type == types.ActionReminder
	default:
		return true
	}
}
