package logout_handler

import (
	"context"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/chat"
	"gopkg.in/telebot.v4"
)

// LogoutHandler обрабатывает команду /logout
type LogoutHandler struct {
	sessions *chat.Sessions
}

// NewLogoutHandler возвращает структуру обработчика
func NewLogoutHandler(sessions *chat.Sessions) *LogoutHandler {
	return &LogoutHandler{sessions: sessions}
}

// Handle ставит модули на паузу и отвязывает пользователя от чата
func (h *LogoutHandler) Handle(c telebot.Context) error {
	if err := h.sessions.Logout(context.Background(), c.Chat().ID); err != nil {
		return chat.RespondError(c, err)
	}
	return c.Send("Вы вышли. Незавершенные модули поставлены на паузу.")
}

// GetHandlerFunc возвращает обработчик в формате telebot.HandlerFunc
func (h *LogoutHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
