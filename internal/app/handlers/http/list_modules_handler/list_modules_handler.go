package list_modules_handler

import (
	"net/http"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/apierror"
	"github.com/IT-Nick/mathquiz/internal/domain/modules/service"
	httpError "github.com/IT-Nick/mathquiz/pkg/http"
)

// ListModulesHandler структура для обработчика
type ListModulesHandler struct {
	moduleService *service.ModuleService
}

// NewListModulesHandler создает новый экземпляр обработчика
func NewListModulesHandler(moduleService *service.ModuleService) *ListModulesHandler {
	return &ListModulesHandler{moduleService: moduleService}
}

// ServeHTTP возвращает все модули по возрастанию id
func (h *ListModulesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	modules, err := h.moduleService.List(r.Context())
	if err != nil {
		apierror.Write(w, "list modules", err)
		return
	}
	httpError.DataResponse(w, http.StatusOK, modules)
}
