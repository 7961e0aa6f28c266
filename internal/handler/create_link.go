package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/linkshortener/internal/models"
	"github.com/mmeshcher/linkshortener/internal/service"
)

// CreateLinkHandler shortens the long URL from a {"long": ...} body. Other
// body fields are ignored. A URL that is already stored is refused with 400
// instead of being shortened twice.
func (h *Handler) CreateLinkHandler(rw http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		http.Error(rw, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req models.CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(rw, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	rec, wasExisting, err := h.service.CreateLink(r.Context(), req.Long)
	if err != nil {
		if errors.Is(err, service.ErrEmptyURL) {
			http.Error(rw, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to create short URL", zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if wasExisting {
		http.Error(rw, service.ErrURLAlreadyExists.Error(), http.StatusBadRequest)
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusCreated)

	encoder := json.NewEncoder(rw)
	if err := encoder.Encode(models.NewLinkResponse(rec)); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
