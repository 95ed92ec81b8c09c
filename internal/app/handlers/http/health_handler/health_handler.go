package health_handler

import (
	"context"
	"log"
	"net/http"
	"time"

	httpError "github.com/IT-Nick/mathquiz/pkg/http"
)

const pingTimeout = 2 * time.Second

// Pinger проверка доступности хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler структура для обработчика
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler создает новый экземпляр обработчика
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// ServeHTTP отвечает 200, если хранилище доступно, и 503 в противном случае
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		log.Printf("Handler: health check failed: %v", err)
		httpError.RawJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpError.RawJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
