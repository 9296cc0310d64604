package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/neststash/neststash/internal/inventory"
	"github.com/neststash/neststash/internal/model"
	"github.com/neststash/neststash/internal/query"
	ws "github.com/neststash/neststash/internal/websocket"
)

type ItemHandler struct {
	service *inventory.Service
	hub     *ws.Hub
	logger  *slog.Logger
}

func NewItemHandler(service *inventory.Service, hub *ws.Hub, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{service: service, hub: hub, logger: logger}
}

// List serves the filtered, sorted inventory. Query parameters: search,
// category, shop, sort (name|category|shop|price|date), dir (asc|desc).
// An absent sort falls back to the saved default.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := query.Filters{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Shop:     q.Get("shop"),
	}
	sortSpec := model.SortSpec{
		Field:     q.Get("sort"),
		Direction: q.Get("dir"),
	}

	items, err := h.service.List(filters, sortSpec)
	if err != nil {
		h.logger.Error("list items", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	item, err := h.service.GetItem(id)
	if err != nil {
		writeServiceError(w, err, "failed to get item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item model.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	saved, err := h.service.SaveItem(item)
	if err != nil {
		h.logger.Warn("create item", "error", err)
		writeServiceError(w, err, "failed to create item")
		return
	}

	h.hub.Broadcast(ws.ItemCreated(saved.ID))
	writeJSON(w, http.StatusCreated, saved)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var item model.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	item.ID = id

	updated, err := h.service.UpdateItem(item)
	if err != nil {
		writeServiceError(w, err, "failed to update item")
		return
	}

	h.hub.Broadcast(ws.ItemUpdated(updated.ID))
	writeJSON(w, http.StatusOK, updated)
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.service.DeleteItem(id); err != nil {
		writeServiceError(w, err, "failed to delete item")
		return
	}

	h.hub.Broadcast(ws.ItemDeleted(id))
	w.WriteHeader(http.StatusNoContent)
}

// Clear wipes the whole inventory. The client shows its own
// are-you-sure dialog; the server takes the request at its word.
func (h *ItemHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(); err != nil {
		h.logger.Error("clear inventory", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear inventory")
		return
	}

	h.hub.Broadcast(ws.InventoryCleared())
	w.WriteHeader(http.StatusNoContent)
}

// Categories serves the distinct category values for the dropdown,
// narrowed by an optional search parameter.
func (h *ItemHandler) Categories(w http.ResponseWriter, r *http.Request) {
	values, err := h.service.CategoryOptions(r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// Shops serves the distinct shop values for the dropdown.
func (h *ItemHandler) Shops(w http.ResponseWriter, r *http.Request) {
	values, err := h.service.ShopOptions(r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list shops")
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// BulkCompress recompresses every stored photo at the current quality
// setting and reports what changed.
func (h *ItemHandler) BulkCompress(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.BulkCompress()
	if err != nil {
		h.logger.Error("bulk compress", "error", err)
		writeError(w, http.StatusInternalServerError, "bulk compression failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
