package start_handler

import (
	"context"
	"fmt"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/chat"
	"gopkg.in/telebot.v4"
)

const welcomeMessage = `Привет, %s!
Здесь можно проходить модули с практическими заданиями на время.

/modules - список модулей
/login <id> - войти
/answer <номер> <ответ> - ответить на вопрос
/logout - выйти`

// StartHandler структура для обработки команды /start
type StartHandler struct {
	sessions *chat.Sessions
}

// NewStartHandler возвращает структуру обработчика
func NewStartHandler(sessions *chat.Sessions) *StartHandler {
	return &StartHandler{sessions: sessions}
}

// Handle приветствует пользователя и показывает модули
func (h *StartHandler) Handle(c telebot.Context) error {
	ctx := context.Background()

	name := c.Sender().FirstName
	if name == "" {
		name = c.Sender().Username
	}
	if err := c.Send(fmt.Sprintf(welcomeMessage, name)); err != nil {
		return err
	}

	m, err := h.sessions.Loaded(ctx, c.Chat().ID)
	return chat.SendModules(c, m, err)
}

// GetHandlerFunc возвращает обработчик в формате telebot.HandlerFunc
func (h *StartHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
