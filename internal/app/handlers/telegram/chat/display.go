package chat

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/IT-Nick/mathquiz/internal/domain/grading"
	"github.com/IT-Nick/mathquiz/internal/infra/chatstore"
	"github.com/IT-Nick/mathquiz/internal/session"
	tele "gopkg.in/telebot.v4"
)

// Messenger отправляет и редактирует сообщения. Реализуется *telebot.Bot.
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Display показывает модуль в сообщении-таймере и обновляет его на каждом тике
type Display struct {
	bot   Messenger
	store chatstore.Store
}

// NewDisplay создает Display
func NewDisplay(bot Messenger, store chatstore.Store) *Display {
	return &Display{bot: bot, store: store}
}

// ShowModule отправляет новое сообщение модуля и делает его сообщением-таймером чата
func (d *Display) ShowModule(chatID int64, m *session.Manager, moduleID int64) error {
	v, ok := m.View(moduleID)
	if !ok {
		return session.ErrUnknownModule
	}

	msg, err := d.bot.Send(tele.ChatID(chatID), ModuleText(v, m.CachedQuestions(moduleID)), ModuleKeyboard(v))
	if err != nil {
		return fmt.Errorf("failed to send module message: %w", err)
	}

	st, _ := d.store.Get(chatID)
	st.ActiveModuleID = moduleID
	st.TimerMessageID = msg.ID
	if err := d.store.Set(chatID, st); err != nil {
		return fmt.Errorf("failed to remember timer message: %w", err)
	}
	return nil
}

// Refresh перерисовывает сообщение-таймер, если оно показывает moduleID
func (d *Display) Refresh(chatID int64, m *session.Manager, moduleID int64) error {
	st, ok := d.store.Get(chatID)
	if !ok || st.ActiveModuleID != moduleID || st.TimerMessageID == 0 {
		return nil
	}
	v, ok := m.View(moduleID)
	if !ok {
		return nil
	}

	stored := tele.StoredMessage{MessageID: strconv.Itoa(st.TimerMessageID), ChatID: chatID}
	_, err := d.bot.Edit(stored, ModuleText(v, m.CachedQuestions(moduleID)), ModuleKeyboard(v))
	if err != nil && !notModified(err) {
		return fmt.Errorf("failed to edit timer message: %w", err)
	}
	return nil
}

// Tick обновляет сообщение-таймер. Ошибки только логируются.
func (d *Display) Tick(chatID int64, m *session.Manager, moduleID int64) {
	if err := d.Refresh(chatID, m, moduleID); err != nil {
		log.Printf("Timer chat=%d module=%d: %v", chatID, moduleID, err)
	}
}

// Completed перерисовывает сообщение-таймер и отправляет результат
func (d *Display) Completed(chatID int64, m *session.Manager, moduleID int64, result grading.Result) {
	d.Tick(chatID, m, moduleID)

	v, ok := m.View(moduleID)
	if !ok {
		return
	}
	if _, err := d.bot.Send(tele.ChatID(chatID), ResultText(v.Module.Title, result)); err != nil {
		log.Printf("Failed to send result to chat %d: %v", chatID, err)
	}
}

// notModified сообщает, что Telegram отклонил редактирование без изменений
func notModified(err error) bool {
	return errors.Is(err, tele.ErrSameMessageContent) || strings.Contains(err.Error(), "message is not modified")
}
