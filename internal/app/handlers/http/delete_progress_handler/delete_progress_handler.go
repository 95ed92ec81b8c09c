package delete_progress_handler

import (
	"log"
	"net/http"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/apierror"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/params"
	"github.com/IT-Nick/mathquiz/internal/domain/progress/service"
	"github.com/IT-Nick/mathquiz/middleware"
	httpError "github.com/IT-Nick/mathquiz/pkg/http"
)

// DeleteProgressHandler структура для обработчика
type DeleteProgressHandler struct {
	progressService *service.ProgressService
}

// NewDeleteProgressHandler создает новый экземпляр обработчика
func NewDeleteProgressHandler(progressService *service.ProgressService) *DeleteProgressHandler {
	return &DeleteProgressHandler{progressService: progressService}
}

// ServeHTTP удаляет прогресс, возвращая модуль в состояние "не начат"
func (h *DeleteProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	moduleID, err := params.PathID(r, "id")
	if err != nil {
		apierror.Write(w, "delete progress", err)
		return
	}
	explicit, err := params.QueryID(r, "user_id")
	if err != nil {
		apierror.Write(w, "delete progress", err)
		return
	}
	userID, err := middleware.ResolveUserID(r.Context(), explicit)
	if err != nil {
		apierror.Write(w, "delete progress", err)
		return
	}

	deleted, err := h.progressService.Delete(r.Context(), userID, moduleID)
	if err != nil {
		apierror.Write(w, "delete progress", err)
		return
	}

	log.Printf("Handler: progress user=%d module=%d reset (existed=%v)", userID, moduleID, deleted)
	httpError.MessageResponse(w, http.StatusOK, "Progress reset successfully")
}
