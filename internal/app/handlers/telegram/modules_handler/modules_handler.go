package modules_handler

import (
	"context"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/chat"
	"gopkg.in/telebot.v4"
)

// ModulesHandler показывает список модулей по команде /modules и по кнопке "Обновить"
type ModulesHandler struct {
	sessions *chat.Sessions
}

// NewModulesHandler возвращает структуру обработчика
func NewModulesHandler(sessions *chat.Sessions) *ModulesHandler {
	return &ModulesHandler{sessions: sessions}
}

// Handle заново загружает модули и прогресс пользователя
func (h *ModulesHandler) Handle(c telebot.Context) error {
	ctx := context.Background()
	m := h.sessions.Manager(ctx, c.Chat().ID)
	err := m.Load(ctx)

	if c.Callback() != nil {
		if respErr := c.Respond(); respErr != nil {
			return respErr
		}
	}
	return chat.SendModules(c, m, err)
}

// GetHandlerFunc возвращает обработчик в формате telebot.HandlerFunc
func (h *ModulesHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
