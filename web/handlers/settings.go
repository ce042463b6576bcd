package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/scrypster/recall/pkg/types"
)

// GetSettings handles GET /api/settings.
func (h *APIHandlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load settings", err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// PutSettings handles PUT /api/settings - replace the full settings
// document. Changes take effect immediately, no restart required.
func (h *APIHandlers) PutSettings(w http.ResponseWriter, r *http.Request) {
	var settings types.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if !types.IsValidNotificationFilter(settings.NotificationFilter) {
		respondError(w, http.StatusBadRequest, "notification_filter must be all, events, or todos", nil)
		return
	}

	if err := h.settings.Save(settings); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save settings", err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}
