package save_progress_handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/apierror"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/params"
	"github.com/IT-Nick/mathquiz/internal/domain/progress/service"
	"github.com/IT-Nick/mathquiz/middleware"
	httpError "github.com/IT-Nick/mathquiz/pkg/http"
)

// SaveProgressHandler структура для обработчика
type SaveProgressHandler struct {
	progressService *service.ProgressService
}

// NewSaveProgressHandler создает новый экземпляр обработчика
func NewSaveProgressHandler(progressService *service.ProgressService) *SaveProgressHandler {
	return &SaveProgressHandler{progressService: progressService}
}

// ServeHTTP создает или обновляет прогресс пользователя по модулю
func (h *SaveProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	moduleID, err := params.PathID(r, "id")
	if err != nil {
		apierror.Write(w, "save progress", err)
		return
	}

	var request service.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httpError.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	request.ModuleID = moduleID

	request.UserID, err = middleware.ResolveUserID(r.Context(), request.UserID)
	if err != nil {
		apierror.Write(w, "save progress", err)
		return
	}

	progress, err := h.progressService.Save(r.Context(), request)
	if err != nil {
		apierror.Write(w, "save progress", err)
		return
	}

	log.Printf("Handler: progress user=%d module=%d status=%s remaining=%d version=%d",
		progress.UserID, progress.ModuleID, progress.Status, progress.RemainingSeconds, progress.Version)
	httpError.DataResponse(w, http.StatusOK, progress)
}
