package middleware

import (
	"fmt"
	"log"

	"github.com/IT-Nick/mathquiz/internal/infra/chatstore"
	tele "gopkg.in/telebot.v4"
)

// DebugUserActions возвращает middleware, которое после обработки отправляет в чат
// отладочное сообщение: отправитель, вошедший пользователь, активный модуль и действие.
func DebugUserActions(store chatstore.Store) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			err := next(c)

			chat := c.Chat()
			if chat == nil {
				return err
			}
			st, _ := store.Get(chat.ID)

			go func(text string) {
				if _, sendErr := c.Bot().Send(chat, text); sendErr != nil {
					log.Printf("Failed to send debug message to chat %d: %v", chat.ID, sendErr)
				}
			}(DebugMessage(c, st))
			return err
		}
	}
}

// DebugMessage текст отладочного сообщения
func DebugMessage(c tele.Context, st chatstore.ChatState) string {
	var action string
	switch {
	case c.Callback() != nil:
		action = "Callback: " + c.Callback().Unique + "|" + c.Callback().Data
	case c.Message() != nil:
		action = "Message: " + c.Message().Text
	default:
		action = "Unknown action"
	}

	var name string
	var senderID int64
	if sender := c.Sender(); sender != nil {
		name, senderID = sender.FirstName, sender.ID
	}
	return fmt.Sprintf("DEBUG: User: %s (ID: %d), Login: %d, Module: %d, Action: %s",
		name, senderID, st.UserID, st.ActiveModuleID, action)
}
