package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/linkshortener/internal/codegen"
	"github.com/mmeshcher/linkshortener/internal/service"
)

func (h *Handler) RedirectHandler(rw http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "shortenurl")
	if !codegen.ValidSymbols(code) {
		http.Error(rw, "Not Found", http.StatusNotFound)
		return
	}

	longURL, err := h.service.Resolve(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Error(rw, "Not Found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to resolve short URL", zap.String("short_code", code), zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Location", longURL)
	rw.WriteHeader(http.StatusFound)
}
