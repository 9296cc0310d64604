package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/neststash/neststash/internal/backup"
	"github.com/neststash/neststash/internal/inventory"
	ws "github.com/neststash/neststash/internal/websocket"
)

// maxImportBytes bounds an uploaded backup file. Photos are inline data
// URLs, so real exports run large; 256 MB is far beyond any sane one.
const maxImportBytes = 256 << 20

type BackupHandler struct {
	service    *inventory.Service
	offsite    *backup.Manager
	passphrase string
	hub        *ws.Hub
	logger     *slog.Logger
}

func NewBackupHandler(service *inventory.Service, offsite *backup.Manager, passphrase string, hub *ws.Hub, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{
		service:    service,
		offsite:    offsite,
		passphrase: passphrase,
		hub:        hub,
		logger:     logger,
	}
}

// Export streams the full inventory and settings as a downloadable
// JSON backup file.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	file, err := h.service.Export()
	if err != nil {
		h.logger.Error("export", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	payload, err := backup.Encode(*file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := fmt.Sprintf("neststash-backup-%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(payload)
}

// Import appends the items from an uploaded backup file. Existing items
// are never touched; the response reports how many records landed.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	file, err := backup.Parse(payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	imported, err := h.service.Import(file)
	if err != nil {
		h.logger.Error("import", "imported", imported, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":    "import failed partway",
			"imported": imported,
		})
		return
	}

	h.hub.Broadcast(ws.ImportCompleted(imported))
	writeJSON(w, http.StatusOK, map[string]any{"imported": imported})
}

// OffsiteBackup uploads a fresh export to the configured S3 bucket.
func (h *BackupHandler) OffsiteBackup(w http.ResponseWriter, r *http.Request) {
	if !h.offsite.Enabled() {
		writeError(w, http.StatusConflict, "off-site backup not configured")
		return
	}

	file, err := h.service.Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	payload, err := backup.Encode(*file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	key, err := h.offsite.Upload(r.Context(), payload, h.passphrase)
	if err != nil {
		h.logger.Error("offsite backup", "error", err)
		writeError(w, http.StatusBadGateway, "upload failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
}

// OffsiteStatus reports the off-site backup manager state.
func (h *BackupHandler) OffsiteStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.offsite.Status())
}
