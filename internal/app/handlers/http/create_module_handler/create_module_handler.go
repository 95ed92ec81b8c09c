package create_module_handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/apierror"
	"github.com/IT-Nick/mathquiz/internal/domain/modules/service"
	httpError "github.com/IT-Nick/mathquiz/pkg/http"
)

// CreateModuleHandler структура для обработчика
type CreateModuleHandler struct {
	moduleService *service.ModuleService
}

// NewCreateModuleHandler создает новый экземпляр обработчика
func NewCreateModuleHandler(moduleService *service.ModuleService) *CreateModuleHandler {
	return &CreateModuleHandler{moduleService: moduleService}
}

// ServeHTTP создает модуль и возвращает его с кодом 201
func (h *CreateModuleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var request service.CreateModuleRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		httpError.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	module, err := h.moduleService.Create(r.Context(), request)
	if err != nil {
		apierror.Write(w, "create module", err)
		return
	}

	log.Printf("Handler: module %d %q created", module.ID, module.Title)
	httpError.DataResponse(w, http.StatusCreated, module)
}
