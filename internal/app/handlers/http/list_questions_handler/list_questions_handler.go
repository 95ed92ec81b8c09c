package list_questions_handler

import (
	"net/http"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/apierror"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/params"
	"github.com/IT-Nick/mathquiz/internal/domain/modules/service"
	httpError "github.com/IT-Nick/mathquiz/pkg/http"
)

// ListQuestionsHandler структура для обработчика
type ListQuestionsHandler struct {
	moduleService *service.ModuleService
}

// NewListQuestionsHandler создает новый экземпляр обработчика
func NewListQuestionsHandler(moduleService *service.ModuleService) *ListQuestionsHandler {
	return &ListQuestionsHandler{moduleService: moduleService}
}

// ServeHTTP возвращает вопросы модуля из параметра module_id
func (h *ListQuestionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	moduleID, err := params.QueryID(r, "module_id")
	if err != nil {
		apierror.Write(w, "list questions", err)
		return
	}
	if moduleID == 0 {
		httpError.ErrorResponse(w, http.StatusBadRequest, "module_id is required")
		return
	}

	questions, err := h.moduleService.Questions(r.Context(), moduleID)
	if err != nil {
		apierror.Write(w, "list questions", err)
		return
	}
	httpError.DataResponse(w, http.StatusOK, questions)
}
