package get_module_handler

import (
	"net/http"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/apierror"
	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/params"
	"github.com/IT-Nick/mathquiz/internal/domain/modules/service"
	httpError "github.com/IT-Nick/mathquiz/pkg/http"
)

// GetModuleHandler структура для обработчика
type GetModuleHandler struct {
	moduleService *service.ModuleService
}

// NewGetModuleHandler создает новый экземпляр обработчика
func NewGetModuleHandler(moduleService *service.ModuleService) *GetModuleHandler {
	return &GetModuleHandler{moduleService: moduleService}
}

// ServeHTTP возвращает модуль по id или 404
func (h *GetModuleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := params.PathID(r, "id")
	if err != nil {
		apierror.Write(w, "get module", err)
		return
	}

	module, err := h.moduleService.Get(r.Context(), id)
	if err != nil {
		apierror.Write(w, "get module", err)
		return
	}
	httpError.DataResponse(w, http.StatusOK, module)
}
