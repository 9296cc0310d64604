package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/neststash/neststash/internal/inventory"
	"github.com/neststash/neststash/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// writeServiceError maps service-layer failures onto HTTP statuses:
// rejected input is 400, a missing item 404, everything else 500.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *inventory.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "item not found")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
