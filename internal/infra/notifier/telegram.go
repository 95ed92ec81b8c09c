package notifier

import (
	"context"
	"fmt"
	"log"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
	"gopkg.in/telebot.v4"
)

// TelegramNotifier отправляет администратору сообщение о завершении модуля
type TelegramNotifier struct {
	bot    *telebot.Bot
	chatID int64
}

// NewTelegramNotifier создает бота без опроса обновлений: он только отправляет сообщения.
// apiURL пустой для api.telegram.org.
func NewTelegramNotifier(token, apiURL string, chatID int64) (*TelegramNotifier, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		URL:     apiURL,
		Token:   token,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telebot.NewBot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// NotifyCompletion сообщает о завершении модуля и результате
func (n *TelegramNotifier) NotifyCompletion(_ context.Context, p model.Progress, m model.Module) error {
	text := CompletionMessage(p, m)
	if _, err := n.bot.Send(&telebot.Chat{ID: n.chatID}, text); err != nil {
		return fmt.Errorf("failed to send completion message: %w", err)
	}
	log.Printf("Completion of module %d by user %d reported to chat %d", m.ID, p.UserID, n.chatID)
	return nil
}

// CompletionMessage текст уведомления о завершении
func CompletionMessage(p model.Progress, m model.Module) string {
	right, wrong := 0, 0
	if p.RightAnswer != nil {
		right = *p.RightAnswer
	}
	if p.WrongAnswer != nil {
		wrong = *p.WrongAnswer
	}
	return fmt.Sprintf("Пользователь %d завершил модуль «%s»: %d из %d верно, осталось времени %d с.",
		p.UserID, m.Title, right, right+wrong, p.RemainingSeconds)
}
