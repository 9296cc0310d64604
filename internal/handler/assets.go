package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/neststash/neststash/internal/assetcache"
	"github.com/neststash/neststash/internal/update"
	ws "github.com/neststash/neststash/internal/websocket"
)

type AssetHandler struct {
	assets      *assetcache.Manager
	coordinator *update.Coordinator
	hub         *ws.Hub
	logger      *slog.Logger
}

func NewAssetHandler(assets *assetcache.Manager, coordinator *update.Coordinator, hub *ws.Hub, logger *slog.Logger) *AssetHandler {
	h := &AssetHandler{assets: assets, coordinator: coordinator, hub: hub, logger: logger}
	coordinator.OnApplied(func(version string) {
		hub.Broadcast(ws.UpdateAvailable(version))
	})
	return h
}

// AppVersion reports the serving asset generation as plain text, the
// endpoint the client polls to notice updates.
func (h *AssetHandler) AppVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(h.assets.Version()))
}

// CheckUpdate runs one update check and returns its status.
func (h *AssetHandler) CheckUpdate(w http.ResponseWriter, r *http.Request) {
	status, err := h.coordinator.Check()
	if err != nil {
		h.logger.Error("update check", "error", err)
		writeError(w, http.StatusInternalServerError, "update check failed")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Command accepts client commands. The only one today is
// {"action": "activate-pending"}, which switches to the waiting asset
// generation.
func (h *AssetHandler) Command(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Action != "activate-pending" {
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	status, err := h.coordinator.Apply()
	if err != nil {
		h.logger.Error("activate pending", "error", err)
		writeError(w, http.StatusInternalServerError, "activation failed")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Serve resolves one asset request through the cache policies:
// network-first for the app shell, cache-first for everything else. A
// dead origin with no cached copy yields 503.
func (h *AssetHandler) Serve(w http.ResponseWriter, r *http.Request) {
	res, err := h.assets.Serve(r.Context(), r.URL.Path)
	if err != nil {
		var netErr *assetcache.NetworkError
		if errors.As(err, &netErr) {
			writeError(w, http.StatusServiceUnavailable, "origin unreachable and no cached copy")
			return
		}
		h.logger.Error("serve asset", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to serve asset")
		return
	}

	if res.ContentType != "" {
		w.Header().Set("Content-Type", res.ContentType)
	}
	w.WriteHeader(res.Status)
	w.Write(res.Body)
}
