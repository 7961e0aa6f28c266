package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmeshcher/linkshortener/internal/middleware"
)

func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.ContextTimeout(h.requestTimeout))
	r.Use(middleware.GzipMiddleware)

	r.Get("/", h.HomeHandler)
	r.Get("/ping", h.PingHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/createshorturl", h.CreateLinkHandler)
	r.Route("/geturl", func(r chi.Router) {
		r.Get("/", h.ListLinksHandler)
		r.Get("/{shortenurl}", h.RedirectHandler)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	return r
}
