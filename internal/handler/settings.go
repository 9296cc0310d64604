package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/neststash/neststash/internal/inventory"
	"github.com/neststash/neststash/internal/model"
	ws "github.com/neststash/neststash/internal/websocket"
)

type SettingsHandler struct {
	service *inventory.Service
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewSettingsHandler(service *inventory.Service, hub *ws.Hub, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, hub: hub, logger: logger}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Settings()
	if err != nil {
		h.logger.Error("load settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var settings model.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.service.SaveSettings(settings); err != nil {
		writeServiceError(w, err, "failed to save settings")
		return
	}

	h.hub.Broadcast(ws.SettingsChanged())
	writeJSON(w, http.StatusOK, settings)
}
