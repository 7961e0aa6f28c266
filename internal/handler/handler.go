package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/linkshortener/internal/service"
)

const welcomeMessage = "Hello, Welcome to the APP"

type Handler struct {
	service        *service.ShortenerService
	logger         *zap.Logger
	requestTimeout time.Duration
}

func NewHandler(service *service.ShortenerService, logger *zap.Logger, requestTimeout time.Duration) *Handler {
	return &Handler{
		service:        service,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

func (h *Handler) HomeHandler(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.WriteHeader(http.StatusOK)
	rw.Write([]byte(welcomeMessage))
}
