// Package apierror переводит доменные ошибки в HTTP статусы
package apierror

import (
	"errors"
	"log"
	"net/http"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/http/params"
	modulesService "github.com/IT-Nick/mathquiz/internal/domain/modules/service"
	progressService "github.com/IT-Nick/mathquiz/internal/domain/progress/service"
	"github.com/IT-Nick/mathquiz/middleware"
	httpError "github.com/IT-Nick/mathquiz/pkg/http"
)

// Status возвращает HTTP статус для ошибки
func Status(err error) int {
	switch {
	case errors.Is(err, progressService.ErrUserRequired),
		errors.Is(err, progressService.ErrInvalidStatus),
		errors.Is(err, modulesService.ErrInvalidModule),
		errors.Is(err, params.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, middleware.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, middleware.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, modulesService.ErrModuleNotFound):
		return http.StatusNotFound
	case errors.Is(err, progressService.ErrModuleCompleted),
		errors.Is(err, progressService.ErrVersionConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Write пишет ответ с ошибкой. Внутренние ошибки логируются, клиент получает общее сообщение.
func Write(w http.ResponseWriter, handler string, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		log.Printf("Handler: %s failed: %v", handler, err)
		httpError.ErrorResponse(w, status, "Internal server error")
		return
	}
	httpError.ErrorResponse(w, status, err.Error())
}
