package answer_handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/chat"
	"gopkg.in/telebot.v4"
)

// AnswerHandler обрабатывает команду /answer <номер> <ответ> для модуля в сообщении-таймере
type AnswerHandler struct {
	sessions *chat.Sessions
	display  *chat.Display
}

// NewAnswerHandler возвращает структуру обработчика
func NewAnswerHandler(sessions *chat.Sessions, display *chat.Display) *AnswerHandler {
	return &AnswerHandler{sessions: sessions, display: display}
}

// Handle записывает ответ на вопрос текущего модуля
func (h *AnswerHandler) Handle(c telebot.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Send("Использование: /answer <номер> <ответ>")
	}
	number, err := strconv.Atoi(args[0])
	if err != nil || number < 1 {
		return c.Send("Номер вопроса должен быть положительным числом")
	}

	chatID := c.Chat().ID
	st, ok := h.sessions.Store().Get(chatID)
	if !ok || st.ActiveModuleID == 0 {
		return c.Send("Сначала начните модуль: /modules")
	}

	ctx := context.Background()
	m, err := h.sessions.Loaded(ctx, chatID)
	if err != nil {
		return chat.RespondError(c, err)
	}
	if _, err := m.Questions(ctx, st.ActiveModuleID); err != nil {
		return chat.RespondError(c, err)
	}
	if err := m.Answer(st.ActiveModuleID, number-1, strings.Join(args[1:], " ")); err != nil {
		return chat.RespondError(c, err)
	}

	if err := h.display.Refresh(chatID, m, st.ActiveModuleID); err != nil {
		return err
	}
	return c.Send(fmt.Sprintf("Ответ на вопрос %d записан", number))
}

// GetHandlerFunc возвращает обработчик в формате telebot.HandlerFunc
func (h *AnswerHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
