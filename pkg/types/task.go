package types

import "time"

// Task is a persisted, user-manageable schedulable item, possibly originating
// from an AI-detected action. AI-originated tasks start unapproved and are
// excluded from all active query surfaces until the user approves them.
type Task struct {
	ID string `json:"id"`

	// MemoryID links back to the memory that spawned this task.
	// Nil means the task was created manually.
	MemoryID *int64 `json:"memory_id,omitempty"`

	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	DueDate     string   `json:"due_date,omitempty"` // YYYY-MM-DD
	DueTime     string   `json:"due_time,omitempty"` // HH:MM
	Priority    string   `json:"priority,omitempty"`
	Type        TaskType `json:"type"`

	IsCompleted bool `json:"is_completed"`

	// IsApproved is false for AI-originated tasks until the user explicitly
	// approves them; true implicitly for manually created tasks.
	IsApproved bool `json:"is_approved"`

	IsRecurring    bool   `json:"is_recurring"`
	RecurrenceRule string `json:"recurrence_rule,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
