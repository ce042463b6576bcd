// Package types defines the core data structures for the Recall memory system.
// These types represent captured memories, AI-detected actions, derived tasks,
// and their lifecycle metadata under the async enrichment model.
package types

// MemoryStatus represents the processing status of a captured memory.
type MemoryStatus string

// Memory lifecycle constants. The only writer of status transitions past
// StatusPending is the processing engine.
const (
	// StatusPending indicates the memory is newly captured, awaiting enrichment.
	StatusPending MemoryStatus = "pending"

	// StatusProcessing indicates the memory has been claimed by a worker.
	StatusProcessing MemoryStatus = "processing"

	// StatusCompleted indicates enrichment finished successfully.
	StatusCompleted MemoryStatus = "completed"

	// StatusFailed indicates enrichment failed permanently. Failed memories
	// are not swept automatically; they re-enter processing only through an
	// explicit retry.
	StatusFailed MemoryStatus = "failed"
)

// ValidMemoryStatuses contains all valid memory status values.
var ValidMemoryStatuses = []MemoryStatus{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

// IsValidMemoryStatus checks if the given status is a valid memory status.
func IsValidMemoryStatus(status MemoryStatus) bool {
	for _, s := range ValidMemoryStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ActionType classifies an AI-detected action.
type ActionType string

const (
	ActionEvent    ActionType = "event"
	ActionTodo     ActionType = "todo"
	ActionReminder ActionType = "reminder"
)

// IsValidActionType checks if the given type is a valid action type.
func IsValidActionType(t ActionType) bool {
	return t == ActionEvent || t == ActionTodo || t == ActionReminder
}

// TaskType classifies a persisted task. Reminders collapse into todos when
// an action becomes a task.
type TaskType string

const (
	TaskTodo  TaskType = "todo"
	TaskEvent TaskType = "event"
)

// TaskTypeForAction maps an action type onto the two-value task type enum.
func TaskTypeForAction(t ActionType) TaskType {
	if t == ActionEvent {
		return TaskEvent
	}
	return TaskTodo
}

// Task priority constants.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// NotificationFilter restricts which detected actions produce notifications.
type NotificationFilter string

const (
	// NotifyAll dispatches notifications for every detected action.
	NotifyAll NotificationFilter = "all"

	// NotifyEvents dispatches only for event actions.
	NotifyEvents NotificationFilter = "events"

	// NotifyTodos dispatches only for todo and reminder actions.
	NotifyTodos NotificationFilter = "todos"
)

// IsValidNotificationFilter checks if the given filter value is valid.
func IsValidNotificationFilter(f NotificationFilter) bool {
	return f == NotifyAll || f == NotifyEvents || f == NotifyTodos
}
