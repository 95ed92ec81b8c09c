package chat

import (
	"log"

	"github.com/IT-Nick/mathquiz/internal/session"
	tele "gopkg.in/telebot.v4"
)

// SendModules отправляет список модулей. При ошибке загрузки показывает кнопку повтора.
func SendModules(c tele.Context, m *session.Manager, loadErr error) error {
	if loadErr != nil {
		log.Printf("Telegram: chat %d: %v", c.Chat().ID, loadErr)
		return c.Send(UserMessage(loadErr), RetryKeyboard())
	}

	views := m.Views()
	text := ModulesText(views, m.Identity())
	if m.Identity().Anonymous() || len(views) == 0 {
		return c.Send(text)
	}
	return c.Send(text, ModulesKeyboard(views))
}

// RespondError сообщает пользователю об ошибке: всплывающим ответом на кнопку или сообщением
func RespondError(c tele.Context, err error) error {
	log.Printf("Telegram: chat %d: %v", c.Chat().ID, err)
	text := UserMessage(err)
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
	}
	return c.Send(text)
}
