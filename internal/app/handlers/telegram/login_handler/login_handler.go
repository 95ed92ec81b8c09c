package login_handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/chat"
	"github.com/IT-Nick/mathquiz/internal/session"
	"gopkg.in/telebot.v4"
)

// LoginHandler обрабатывает команду /login <id>
type LoginHandler struct {
	sessions *chat.Sessions
}

// NewLoginHandler возвращает структуру обработчика
func NewLoginHandler(sessions *chat.Sessions) *LoginHandler {
	return &LoginHandler{sessions: sessions}
}

// Handle связывает чат с пользователем и показывает его модули
func (h *LoginHandler) Handle(c telebot.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Использование: /login <id>")
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || userID <= 0 {
		return c.Send("Идентификатор должен быть положительным числом")
	}

	ctx := context.Background()
	identity := session.Identity{UserID: userID, Username: c.Sender().Username}
	m, err := h.sessions.Login(ctx, c.Chat().ID, identity)
	if err != nil && !errors.Is(err, session.ErrLoadFailed) {
		return chat.RespondError(c, err)
	}

	if sendErr := c.Send(fmt.Sprintf("Вы вошли как пользователь %d", userID)); sendErr != nil {
		return sendErr
	}
	return chat.SendModules(c, m, err)
}

// GetHandlerFunc возвращает обработчик в формате telebot.HandlerFunc
func (h *LoginHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
