package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kohizeri/smartcollar-api/internal/api/respond"
	"github.com/kohizeri/smartcollar-api/internal/collar"
)

const defaultNotificationLimit = 50

// GetSettings returns the pet's alert thresholds.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	petID := chi.URLParam(r, "petID")

	settings, err := h.store.Settings(r.Context(), uid, petID)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STORE_ERROR", "failed to load settings", err.Error())
		return
	}
	if settings == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "no notification settings found")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, settings)
}

// GetNotifications returns the pet's most recent notification-log entries,
// newest first. Optional ?limit= query param, default 50.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	petID := chi.URLParam(r, "petID")

	limit := defaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.store.Notifications(r.Context(), uid, petID, limit)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STORE_ERROR", "failed to load notifications", err.Error())
		return
	}
	if records == nil {
		records = []collar.NotificationRecord{}
	}
	respond.WriteJSONObject(w, http.StatusOK, records)
}
