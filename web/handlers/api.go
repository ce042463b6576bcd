// Package handlers provides HTTP handlers and middleware for the Recall REST API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/scrypster/recall/internal/services"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// Enqueuer hands captured or retried memories to the processing engine.
type Enqueuer interface {
	EnqueueMemory(id int64) bool
}

// APIHandlers contains HTTP handlers for the REST API.
type APIHandlers struct {
	memories storage.MemoryStore
	tasks    storage.TaskStore
	settings *services.SettingsService
	engine   Enqueuer
	hub      *WebSocketHub
}

// NewAPIHandlers creates a new APIHandlers instance. The hub may be nil when
// the websocket surface is disabled.
func NewAPIHandlers(memories storage.MemoryStore, tasks storage.TaskStore, settings *services.SettingsService, engine Enqueuer, hub *WebSocketHub) *APIHandlers {
	return &APIHandlers{
		memories: memories,
		tasks:    tasks,
		settings: settings,
		engine:   engine,
		hub:      hub,
	}
}

// RegisterRoutes attaches all API routes to the mux.
func (h *APIHandlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/memories", h.ListMemories)
	mux.HandleFunc("POST /api/memories", h.CreateMemory)
	mux.HandleFunc("GET /api/memories/{id}", h.GetMemory)
	mux.HandleFunc("DELETE /api/memories/{id}", h.DeleteMemory)
	mux.HandleFunc("POST /api/memories/{id}/retry", h.RetryMemory)
	mux.HandleFunc("POST /api/memories/{id}/hide", h.HideMemory)

	mux.HandleFunc("GET /api/tasks", h.ListActiveTasks)
	mux.HandleFunc("GET /api/tasks/review", h.ListReviewTasks)
	mux.HandleFunc("POST /api/tasks", h.CreateTask)
	mux.HandleFunc("POST /api/tasks/approve", h.ApproveTasks)
	mux.HandleFunc("POST /api/tasks/reject", h.RejectTasks)
	mux.HandleFunc("POST /api/tasks/{id}/complete", h.CompleteTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.DeleteTask)

	mux.HandleFunc("GET /api/settings", h.GetSettings)
	mux.HandleFunc("PUT /api/settings", h.PutSettings)

	if h.hub != nil {
		mux.Handle("GET /ws", h.hub)
	}
}

// ListMemories handles GET /api/memories - list memories with pagination and
// optional status filtering.
func (h *APIHandlers) ListMemories(w http.ResponseWriter, r *http.Request) {
	opts := storage.ListOptions{
		Page:          parseInt(r.URL.Query().Get("page"), 1),
		Limit:         parseInt(r.URL.Query().Get("limit"), 20),
		IncludeHidden: r.URL.Query().Get("include_hidden") == "true",
	}

	if status := r.URL.Query().Get("status"); status != "" {
		ms := types.MemoryStatus(status)
		if !types.IsValidMemoryStatus(ms) {
			respondError(w, http.StatusBadRequest, "invalid status filter", nil)
			return
		}
		opts.Status = ms
	}

	result, err := h.memories.List(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list memories", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetMemory handles GET /api/memories/{id}.
func (h *APIHandlers) GetMemory(w http.ResponseWriter, r *http.Request) {
	id, ok := memoryID(w, r)
	if !ok {
		return
	}

	memory, err := h.memories.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "memory not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get memory", err)
		return
	}
	respondJSON(w, http.StatusOK, memory)
}

// CreateMemoryRequest represents the request body for capturing a memory.
type CreateMemoryRequest struct {
	Text          string `json:"text"`
	ImagePath     string `json:"image_path"`
	AudioPath     string `json:"audio_path"`
	BookmarkURL   string `json:"bookmark_url"`
	BookmarkTitle string `json:"bookmark_title"`
	Source        string `json:"source"`
	IsHidden      bool   `json:"is_hidden"`
}

// CreateMemory handles POST /api/memories - capture a new memory.
// The memory is created with status "pending" and enrichment happens
// asynchronously.
func (h *APIHandlers) CreateMemory(w http.ResponseWriter, r *http.Request) {
	var req CreateMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	if req.Source == "" {
		req.Source = "api"
	}

	draft := &types.Memory{
		Text:          req.Text,
		ImagePath:     req.ImagePath,
		AudioPath:     req.AudioPath,
		BookmarkURL:   req.BookmarkURL,
		BookmarkTitle: req.BookmarkTitle,
		Source:        req.Source,
		IsHidden:      req.IsHidden,
	}

	id, err := h.memories.Insert(r.Context(), draft)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "at least one input is required", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create memory", err)
		return
	}

	h.engine.EnqueueMemory(id)

	memory, err := h.memories.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load created memory", err)
		return
	}
	respondJSON(w, http.StatusCreated, memory)
}

// DeleteMemory handles DELETE /api/memories/{id}. Tasks spawned by the
// memory are cascade deleted.
func (h *APIHandlers) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	id, ok := memoryID(w, r)
	if !ok {
		return
	}

	if err := h.memories.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "memory not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete memory", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RetryMemory handles POST /api/memories/{id}/retry - re-enqueue a failed
// memory. Only failed rows are retryable through this endpoint.
func (h *APIHandlers) RetryMemory(w http.ResponseWriter, r *http.Request) {
	id, ok := memoryID(w, r)
	if !ok {
		return
	}

	memory, err := h.memories.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "memory not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get memory", err)
		return
	}

	if memory.Status != types.StatusFailed {
		respondError(w, http.StatusConflict,
			fmt.Sprintf("memory is %s, only failed memories can be retried", memory.Status), nil)
		return
	}

	if !h.engine.EnqueueMemory(id) {
		respondError(w, http.StatusServiceUnavailable, "processing queue is full", nil)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{"id": id, "queued": true})
}

// HideMemoryRequest represents the request body for toggling visibility.
type HideMemoryRequest struct {
	Hidden *bool `json:"hidden"`
}

// HideMemory handles POST /api/memories/{id}/hide. An absent body hides;
// {"hidden": false} unhides.
func (h *APIHandlers) HideMemory(w http.ResponseWriter, r *http.Request) {
	id, ok := memoryID(w, r)
	if !ok {
		return
	}

	hidden := true
	var req HideMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Hidden != nil {
		hidden = *req.Hidden
	}

	if err := h.memories.SetHidden(r.Context(), id, hidden); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "memory not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update memory", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "is_hidden": hidden})
}

// Helper functions

// memoryID extracts and parses the {id} path parameter, writing the error
// response itself on failure.
func memoryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "memory ID is required", nil)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "memory ID must be an integer", err)
		return 0, false
	}
	return id, true
}

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent, nothing more to do.
		log.Printf("api: ERROR: failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}
	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}
	respondJSON(w, statusCode, errResp)
}
