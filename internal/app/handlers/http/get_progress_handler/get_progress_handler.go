package get_progress_handler

import (
	"net/http"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/apierror"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/params"
	"github.com/IT-Nick/mathquiz/internal/domain/progress/service"
	"github.com/IT-Nick/mathquiz/middleware"
	httpError "github.com/IT-Nick/mathquiz/pkg/http"
)

// GetProgressHandler структура для обработчика
type GetProgressHandler struct {
	progressService *service.ProgressService
}

// NewGetProgressHandler создает новый экземпляр обработчика
func NewGetProgressHandler(progressService *service.ProgressService) *GetProgressHandler {
	return &GetProgressHandler{progressService: progressService}
}

// ServeHTTP возвращает запись прогресса или null, если модуль не начат
func (h *GetProgressHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	moduleID, err := params.PathID(r, "id")
	if err != nil {
		apierror.Write(w, "get progress", err)
		return
	}
	explicit, err := params.QueryID(r, "user_id")
	if err != nil {
		apierror.Write(w, "get progress", err)
		return
	}
	userID, err := middleware.ResolveUserID(r.Context(), explicit)
	if err != nil {
		apierror.Write(w, "get progress", err)
		return
	}

	progress, err := h.progressService.Get(r.Context(), userID, moduleID)
	if err != nil {
		apierror.Write(w, "get progress", err)
		return
	}
	httpError.DataResponse(w, http.StatusOK, progress)
}
