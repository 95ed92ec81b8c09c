package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/IT-Nick/mathquiz/internal/domain/grading"
	"github.com/IT-Nick/mathquiz/internal/domain/model"
	"github.com/IT-Nick/mathquiz/internal/session"
	tele "gopkg.in/telebot.v4"
)

// ModulesText список модулей с состоянием и результатом
func ModulesText(views []session.View, identity session.Identity) string {
	var b strings.Builder
	b.WriteString("📚 Модули\n\n")
	if len(views) == 0 {
		b.WriteString("Модулей пока нет.\n")
	}

	for i, v := range views {
		fmt.Fprintf(&b, "%d. %s (%s, вопросов: %d, %d мин.)\n",
			i+1, v.Module.Title, v.Module.Difficulty, v.Module.TotalQuestions, v.Module.DurationMinutes)
		switch v.State {
		case session.StateInProgress:
			fmt.Fprintf(&b, "   ⏱ Идет, осталось %s\n", v.Display)
		case session.StatePaused:
			fmt.Fprintf(&b, "   ⏸ На паузе, осталось %s\n", v.Display)
		case session.StateCompleted:
			b.WriteString("   " + scoreLine(v.Score) + "\n")
		}
	}

	if identity.Anonymous() {
		b.WriteString("\nВойдите командой /login <id>, чтобы проходить модули.")
	}
	return b.String()
}

func scoreLine(score *grading.Result) string {
	if score == nil {
		return "✅ Завершен"
	}
	return fmt.Sprintf("✅ Завершен: %d из %d (%.0f%%)", score.Right, score.Total(), score.Percentage())
}

// ModulesKeyboard кнопки действий для каждого модуля
func ModulesKeyboard(views []session.View) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(views))
	for _, v := range views {
		rows = append(rows, actionRow(markup, v, true))
	}
	markup.Inline(rows...)
	return markup
}

// ModuleKeyboard кнопки действий для одного модуля
func ModuleKeyboard(v session.View) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(actionRow(markup, v, false))
	return markup
}

func actionRow(markup *tele.ReplyMarkup, v session.View, withTitle bool) tele.Row {
	id := strconv.FormatInt(v.Module.ID, 10)
	title := ""
	if withTitle {
		title = " " + v.Module.Title
	}

	switch v.State {
	case session.StateInProgress:
		return markup.Row(
			markup.Data("⏸ Пауза"+title, model.PauseModuleKey, id),
			markup.Data("✅ Сдать", model.SubmitModuleKey, id),
		)
	case session.StatePaused:
		return markup.Row(
			markup.Data("▶ Продолжить"+title, model.ResumeModuleKey, id),
			markup.Data("✅ Сдать", model.SubmitModuleKey, id),
		)
	case session.StateCompleted:
		return markup.Row(markup.Data("🔁 Заново"+title, model.RestartModuleKey, id))
	default:
		return markup.Row(markup.Data("▶ Начать"+title, model.StartModuleKey, id))
	}
}

// ModuleText сообщение модуля: таймер, количество ответов и вопросы
func ModuleText(v session.View, questions []model.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📘 %s\n", v.Module.Title)

	switch v.State {
	case session.StateCompleted:
		b.WriteString(scoreLine(v.Score) + "\n")
		return b.String()
	case session.StatePaused:
		fmt.Fprintf(&b, "⏸ %s (пауза)\n", v.Display)
	default:
		fmt.Fprintf(&b, "⏱ %s\n", v.Display)
	}

	total := v.Module.TotalQuestions
	if len(questions) > 0 {
		total = len(questions)
	}
	fmt.Fprintf(&b, "Отвечено: %d из %d\n", v.Answered, total)

	for i, q := range questions {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, q.Title)
		if q.Formula != "" {
			fmt.Fprintf(&b, "   %s\n", q.Formula)
		}
		if q.Instruction != "" {
			fmt.Fprintf(&b, "   %s\n", q.Instruction)
		}
		if len(q.Options) > 0 {
			fmt.Fprintf(&b, "   Варианты: %s\n", strings.Join(q.Options, "; "))
		}
	}
	if len(questions) > 0 {
		b.WriteString("\nОтвет: /answer <номер> <ответ>")
	}
	return b.String()
}

// ResultText сообщение о завершении модуля
func ResultText(title string, result grading.Result) string {
	return fmt.Sprintf("🏁 Модуль «%s» завершен: %d из %d верно (%.0f%%)",
		title, result.Right, result.Total(), result.Percentage())
}

// RetryKeyboard кнопка повторной загрузки
func RetryKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("🔄 Обновить", model.RetryLoadKey)))
	return markup
}

// ConfirmRestartKeyboard подтверждение перезапуска модуля
func ConfirmRestartKeyboard(moduleID int64) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("Да, пройти заново", model.ConfirmRestartKey, strconv.FormatInt(moduleID, 10)),
	))
	return markup
}

// UserMessage текст ошибки для пользователя
func UserMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrNotLoggedIn):
		return "Сначала войдите: /login <id>"
	case errors.Is(err, session.ErrLoadFailed):
		return "Не удалось загрузить модули. Нажмите «Обновить», чтобы попробовать еще раз."
	case errors.Is(err, session.ErrModuleCompleted):
		return "Модуль уже завершен"
	case errors.Is(err, session.ErrNotStarted):
		return "Модуль еще не начат"
	case errors.Is(err, session.ErrNotCompleted):
		return "Заново можно пройти только завершенный модуль"
	case errors.Is(err, session.ErrRestartNotConfirmed):
		return "Подтвердите повторное прохождение"
	case errors.Is(err, session.ErrInvalidAnswer):
		return "Нет вопроса с таким номером"
	case errors.Is(err, session.ErrUnknownModule):
		return "Модуль не найден, обновите список: /modules"
	default:
		return "Что-то пошло не так, попробуйте позже"
	}
}
