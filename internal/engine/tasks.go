package engine

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/scrypster/recall/pkg/types"
)

// maxTaskTitleRunes bounds the title derived from an action description.
const maxTaskTitleRunes = 80

// createTasksFromActions persists one unapproved task per extracted action.
// Tasks stay invisible to active listings until the user approves them in
// review. A failed insert is logged and skipped; the enrichment itself
// already succeeded.
func (e *Engine) createTasksFromActions(ctx context.Context, memoryID int64, actions []types.Action) {
	if e.tasks == nil || len(actions) == 0 {
		return
	}

	created := 0
	for _, action := range actions {
		task := taskFromAction(memoryID, action)
		if err := e.tasks.Insert(ctx, task); err != nil {
			log.Printf("engine: ERROR: failed to create task for memory %d: %v", memoryID, err)
			continue
		}
		created++
	}

	if created > 0 {
		log.Printf("engine: created %d unapproved tasks for memory %d", created, memoryID)
	}
}

// taskFromAction maps one extracted action to an unapproved task row.
// Reminders become todos; only events keep their own task type.
func taskFromAction(memoryID int64, action types.Action) *types.Task {
	now := time.Now()
	id := memoryID
	return &types.Task{
		ID:          uuid.New().String(),
		MemoryID:    &id,
		Title:       actionTitle(action.Description),
		Description: action.Description,
		DueDate:     action.Date,
		DueTime:     action.Time,
		Priority:    types.PriorityMedium,
		Type:        types.TaskTypeForAction(action.Type),
		IsApproved:  false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// actionTitle derives a task title from an action description: the first
// line, truncated to a display-friendly length.
func actionTitle(description string) string {
	title := strings.TrimSpace(description)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	runes := []rune(title)
	if len(runes) > maxTaskTitleRunes {
		title = string(runes[:maxTaskTitleRunes])
	}
	return title
}
