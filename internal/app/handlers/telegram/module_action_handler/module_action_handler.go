package module_action_handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/IT-Nick/mathquiz/internal/app/handlers/telegram/chat"
	"github.com/IT-Nick/mathquiz/internal/domain/model"
	"github.com/IT-Nick/mathquiz/internal/session"
	"gopkg.in/telebot.v4"
)

// ModuleActionHandler обрабатывает кнопки модуля. Действие задается ключом кнопки из model.
type ModuleActionHandler struct {
	sessions *chat.Sessions
	display  *chat.Display
	action   string
}

// NewModuleActionHandler возвращает обработчик для кнопки action
func NewModuleActionHandler(sessions *chat.Sessions, display *chat.Display, action string) *ModuleActionHandler {
	return &ModuleActionHandler{sessions: sessions, display: display, action: action}
}

// Handle выполняет действие над модулем из данных кнопки
func (h *ModuleActionHandler) Handle(c telebot.Context) error {
	moduleID, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Respond(&telebot.CallbackResponse{Text: "Некорректная кнопка"})
	}

	ctx := context.Background()
	chatID := c.Chat().ID
	m, err := h.sessions.Loaded(ctx, chatID)
	if err != nil {
		return chat.RespondError(c, err)
	}

	var answer string
	switch h.action {
	case model.StartModuleKey:
		if err = m.Start(ctx, moduleID); err == nil {
			err = h.show(ctx, chatID, m, moduleID, true)
			answer = "Модуль начат"
		}
	case model.PauseModuleKey:
		if err = m.Pause(ctx, moduleID); err == nil {
			err = h.show(ctx, chatID, m, moduleID, false)
			answer = "Пауза"
		}
	case model.ResumeModuleKey:
		if err = m.Resume(ctx, moduleID); err == nil {
			err = h.show(ctx, chatID, m, moduleID, false)
			answer = "Продолжаем"
		}
	case model.SubmitModuleKey:
		// результат отправляет Display при завершении
		if _, err = m.Submit(ctx, moduleID); err == nil {
			answer = "Ответы отправлены"
		}
	case model.RestartModuleKey:
		err = m.Restart(ctx, moduleID, false)
		if errors.Is(err, session.ErrRestartNotConfirmed) {
			v, _ := m.View(moduleID)
			text := fmt.Sprintf("Пройти модуль «%s» заново? Текущий результат будет удален.", v.Module.Title)
			if err := c.Send(text, chat.ConfirmRestartKeyboard(moduleID)); err != nil {
				return err
			}
			return c.Respond()
		}
	case model.ConfirmRestartKey:
		if err = m.Restart(ctx, moduleID, true); err == nil {
			if err := c.Respond(&telebot.CallbackResponse{Text: "Модуль снова доступен"}); err != nil {
				return err
			}
			return chat.SendModules(c, m, nil)
		}
	default:
		err = fmt.Errorf("unsupported module action %q", h.action)
	}

	if err != nil {
		return chat.RespondError(c, err)
	}
	return c.Respond(&telebot.CallbackResponse{Text: answer})
}

// show обновляет сообщение-таймер модуля или отправляет новое, если таймер показывает другой модуль
func (h *ModuleActionHandler) show(ctx context.Context, chatID int64, m *session.Manager, moduleID int64, fresh bool) error {
	if _, err := m.Questions(ctx, moduleID); err != nil {
		log.Printf("Telegram: chat %d: %v", chatID, err)
	}
	if st, ok := h.sessions.Store().Get(chatID); !fresh && ok && st.ActiveModuleID == moduleID && st.TimerMessageID != 0 {
		return h.display.Refresh(chatID, m, moduleID)
	}
	return h.display.ShowModule(chatID, m, moduleID)
}

// GetHandlerFunc возвращает обработчик в формате telebot.HandlerFunc
func (h *ModuleActionHandler) GetHandlerFunc() telebot.HandlerFunc {
	return func(c telebot.Context) error {
		return h.Handle(c)
	}
}
