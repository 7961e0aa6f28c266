package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/linkshortener/internal/models"
	"github.com/mmeshcher/linkshortener/internal/service"
)

func (h *Handler) ListLinksHandler(rw http.ResponseWriter, r *http.Request) {
	filter := service.ParseLinkFilter(r.URL.Query())

	links, err := h.service.ListLinks(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list links", zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]models.LinkResponse, 0, len(links))
	for _, rec := range links {
		resp = append(resp, models.NewLinkResponse(rec))
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)

	encoder := json.NewEncoder(rw)
	if err := encoder.Encode(resp); err != nil {
		h.logger.Error("Failed to encode links response", zap.Error(err))
	}
}
