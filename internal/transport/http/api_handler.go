package http

import (
	"encoding/json"
	"net/http"

	"advent-calendar-service/internal/app"
	"go.uber.org/zap"
)

// AppInfo is the packaging metadata the shell was built with.
type AppInfo struct {
	ID     string `json:"appId"`
	Name   string `json:"appName"`
	WebDir string `json:"webDir"`
}

// APIHandler serves the plain JSON endpoints.
type APIHandler struct {
	service *app.CalendarService
	info    AppInfo
	logger  *zap.Logger
}

func NewAPIHandler(service *app.CalendarService, info AppInfo, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{service: service, info: info, logger: logger}
}

// Grid returns the calendar for ?userId=.
func (h *APIHandler) Grid(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "missing userId"})
		return
	}
	grid, err := h.service.Grid(r.Context(), userID)
	if err != nil {
		h.logger.Error("grid failed", zap.String("user", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

// Info returns the packaging metadata.
func (h *APIHandler) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.info)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
