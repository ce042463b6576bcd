package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// ListActiveTasks handles GET /api/tasks - approved, not-completed tasks
// ordered by due date. Unapproved tasks never appear here.
func (h *APIHandlers) ListActiveTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListActive(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list tasks", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

// ListReviewTasks handles GET /api/tasks/review - AI-originated tasks
// awaiting approval, oldest first.
func (h *APIHandlers) ListReviewTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListUnapproved(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list review tasks", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

// CreateTaskRequest represents the request body for manual task creation.
type CreateTaskRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	DueDate        string `json:"due_date"`
	DueTime        string `json:"due_time"`
	Priority       string `json:"priority"`
	Type           string `json:"type"`
	IsRecurring    bool   `json:"is_recurring"`
	RecurrenceRule string `json:"recurrence_rule"`
}

// CreateTask handles POST /api/tasks - manual task creation. Manually
// created tasks are approved implicitly.
func (h *APIHandlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required", nil)
		return
	}

	taskType := types.TaskType(req.Type)
	if taskType == "" {
		taskType = types.TaskTodo
	}
	if taskType != types.TaskTodo && taskType != types.TaskEvent {
		respondError(w, http.StatusBadRequest, "type must be todo or event", nil)
		return
	}
	if req.Priority == "" {
		req.Priority = types.PriorityMedium
	}

	now := time.Now()
	task := &types.Task{
		ID:             uuid.New().String(),
		Title:          req.Title,
		Description:    req.Description,
		DueDate:        req.DueDate,
		DueTime:        req.DueTime,
		Priority:       req.Priority,
		Type:           taskType,
		IsApproved:     true,
		IsRecurring:    req.IsRecurring,
		RecurrenceRule: req.RecurrenceRule,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.tasks.Insert(r.Context(), task); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create task", err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// TaskIDsRequest carries the id set for bulk approve/reject.
type TaskIDsRequest struct {
	IDs []string `json:"ids"`
}

// ApproveTasks handles POST /api/tasks/approve - flip IsApproved for the
// given ids with no other field changes. Unknown ids are ignored.
func (h *APIHandlers) ApproveTasks(w http.ResponseWriter, r *http.Request) {
	var req TaskIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "ids is required", nil)
		return
	}

	approved, err := h.tasks.Approve(r.Context(), req.IDs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to approve tasks", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"approved": approved})
}

// RejectTasks handles POST /api/tasks/reject - rejection deletes outright.
func (h *APIHandlers) RejectTasks(w http.ResponseWriter, r *http.Request) {
	var req TaskIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, "ids is required", nil)
		return
	}

	deleted, err := h.tasks.Delete(r.Context(), req.IDs)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to reject tasks", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"rejected": deleted})
}

// CompleteTaskRequest represents the request body for completion toggling.
type CompleteTaskRequest struct {
	Completed *bool `json:"completed"`
}

// CompleteTask handles POST /api/tasks/{id}/complete. An absent body marks
// the task completed; {"completed": false} reopens it.
func (h *APIHandlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "task ID is required", nil)
		return
	}

	completed := true
	var req CompleteTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Completed != nil {
		completed = *req.Completed
	}

	if err := h.tasks.SetCompleted(r.Context(), id, completed); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "task not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update task", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "is_completed": completed})
}

// DeleteTask handles DELETE /api/tasks/{id}.
func (h *APIHandlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "task ID is required", nil)
		return
	}

	deleted, err := h.tasks.Delete(r.Context(), []string{id})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete task", err)
		return
	}
	if deleted == 0 {
		respondError(w, http.StatusNotFound, "task not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
