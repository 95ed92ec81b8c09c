package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/IT-Nick/mathquiz/internal/domain/grading"
	"github.com/IT-Nick/mathquiz/internal/domain/model"
	"github.com/IT-Nick/mathquiz/internal/infra/chatstore"
	"github.com/IT-Nick/mathquiz/internal/infra/timer"
	"github.com/IT-Nick/mathquiz/internal/session"
	tele "gopkg.in/telebot.v4"
)

type stubBackend struct {
	mu      sync.Mutex
	records map[int64]*model.Progress
}

func (b *stubBackend) ListModules(ctx context.Context) ([]model.Module, error) {
	return []model.Module{
		{ID: 1, Title: "Дроби", Difficulty: "easy", TotalQuestions: 2, DurationMinutes: 5},
		{ID: 2, Title: "Производные", Difficulty: "hard", TotalQuestions: 3, DurationMinutes: 10},
	}, nil
}

func (b *stubBackend) ListQuestions(ctx context.Context, moduleID int64) ([]model.Question, error) {
	return []model.Question{
		{ID: 1, ModuleID: moduleID, Title: "Сложите", Formula: "1/2 + 1/4", CorrectAnswer: "3/4"},
		{ID: 2, ModuleID: moduleID, Title: "Выберите", Options: []string{"a", "b"}, CorrectAnswer: "a"},
	}, nil
}

func (b *stubBackend) GetProgress(ctx context.Context, userID, moduleID int64) (*model.Progress, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.records[moduleID], nil
}

func (b *stubBackend) SaveProgress(ctx context.Context, userID, moduleID int64, u model.ProgressUpdate) (*model.Progress, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &model.Progress{UserID: userID, ModuleID: moduleID, Status: u.Status, RemainingSeconds: u.RemainingSeconds}
	b.records[moduleID] = p
	return p, nil
}

func (b *stubBackend) DeleteProgress(ctx context.Context, userID, moduleID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.records, moduleID)
	return nil
}

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []string
	edits   []string
	editErr error
}

func (f *fakeMessenger) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, what.(string))
	return &tele.Message{ID: 40 + len(f.sent)}, nil
}

func (f *fakeMessenger) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.edits = append(f.edits, what.(string))
	return &tele.Message{}, nil
}

func newSessions(backend session.Backend, store chatstore.Store) *Sessions {
	registry := session.NewRegistry(func(chatID int64, identity session.Identity) *session.Manager {
		return session.NewManager(backend, identity,
			session.WithSettleDelay(time.Hour),
			session.WithTimerOptions(timer.WithTickInterval(time.Hour), timer.WithDispatcher(func(f func()) { f() })),
		)
	})
	return NewSessions(registry, store)
}

func TestSessions_LoginPersistsIdentity(t *testing.T) {
	backend := &stubBackend{records: map[int64]*model.Progress{}}
	store := chatstore.NewMemoryStore()
	s := newSessions(backend, store)
	defer s.Close(context.Background())
	ctx := context.Background()

	anon := s.Manager(ctx, 100)
	if !anon.Identity().Anonymous() {
		t.Fatal("До входа менеджер должен быть анонимным")
	}

	m, err := s.Login(ctx, 100, session.Identity{UserID: 7, Username: "ivan"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if m.Identity().UserID != 7 || len(m.Views()) != 2 {
		t.Fatalf("Ожидался загруженный менеджер пользователя 7, получено %+v", m.Identity())
	}
	if st, ok := store.Get(100); !ok || st.UserID != 7 {
		t.Fatalf("Вход должен сохраняться в хранилище, получено %+v", st)
	}

	// новый реестр, как после перезапуска бота
	restarted := newSessions(backend, store)
	defer restarted.Close(ctx)
	if n := restarted.Restore(ctx); n != 1 {
		t.Fatalf("Ожидался один восстановленный чат, получено %d", n)
	}
	if got := restarted.Manager(ctx, 100); got.Identity().UserID != 7 || !got.Loaded() {
		t.Fatal("Восстановленный чат должен относиться к пользователю 7")
	}

	if err := s.Logout(ctx, 100); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := store.Get(100); ok {
		t.Fatal("После выхода состояние чата удаляется")
	}
}

func TestDisplay_ShowAndRefresh(t *testing.T) {
	backend := &stubBackend{records: map[int64]*model.Progress{}}
	store := chatstore.NewMemoryStore()
	s := newSessions(backend, store)
	defer s.Close(context.Background())
	ctx := context.Background()

	m, err := s.Login(ctx, 100, session.Identity{UserID: 7})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := m.Start(ctx, 1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.Questions(ctx, 1); err != nil {
		t.Fatalf("Questions: %v", err)
	}

	bot := &fakeMessenger{}
	d := NewDisplay(bot, store)
	if err := d.ShowModule(100, m, 1); err != nil {
		t.Fatalf("ShowModule: %v", err)
	}
	st, _ := store.Get(100)
	if st.ActiveModuleID != 1 || st.TimerMessageID != 41 {
		t.Fatalf("Сообщение-таймер должно запоминаться, получено %+v", st)
	}
	if !strings.Contains(bot.sent[0], "⏱ 05:00") || !strings.Contains(bot.sent[0], "1/2 + 1/4") {
		t.Fatalf("Неожиданный текст модуля: %s", bot.sent[0])
	}

	d.Tick(100, m, 2)
	if len(bot.edits) != 0 {
		t.Fatal("Тик другого модуля не должен менять сообщение")
	}
	d.Tick(100, m, 1)
	if len(bot.edits) != 1 {
		t.Fatalf("Ожидалось одно редактирование, получено %d", len(bot.edits))
	}

	bot.editErr = tele.ErrSameMessageContent
	if err := d.Refresh(100, m, 1); err != nil {
		t.Fatalf("Сообщение без изменений не считается ошибкой: %v", err)
	}
	bot.editErr = errors.New("Bad Request: chat not found")
	if err := d.Refresh(100, m, 1); err == nil {
		t.Fatal("Ожидалась ошибка редактирования")
	}
}

func TestModulesText(t *testing.T) {
	score := grading.Result{Right: 2, Wrong: 1}
	views := []session.View{
		{Module: model.Module{ID: 1, Title: "Дроби", Difficulty: "easy", TotalQuestions: 2, DurationMinutes: 5}, State: session.StateNotStarted, Display: "05:00"},
		{Module: model.Module{ID: 2, Title: "Пределы"}, State: session.StatePaused, Display: "01:05"},
		{Module: model.Module{ID: 3, Title: "Ряды"}, State: session.StateCompleted, Score: &score},
	}

	text := ModulesText(views, session.Identity{})
	for _, want := range []string{"1. Дроби (easy, вопросов: 2, 5 мин.)", "На паузе, осталось 01:05", "Завершен: 2 из 3 (67%)", "/login"} {
		if !strings.Contains(text, want) {
			t.Errorf("В тексте нет %q:\n%s", want, text)
		}
	}
	if strings.Contains(ModulesText(views, session.Identity{UserID: 7}), "/login") {
		t.Error("Вошедшему пользователю не предлагается вход")
	}

	kb := ModulesKeyboard(views)
	if len(kb.InlineKeyboard) != 3 {
		t.Fatalf("Ожидалось 3 строки кнопок, получено %d", len(kb.InlineKeyboard))
	}
	if got := kb.InlineKeyboard[1][0].Unique; got != model.ResumeModuleKey {
		t.Errorf("Для модуля на паузе ожидалась кнопка %s, получено %s", model.ResumeModuleKey, got)
	}
	if got := kb.InlineKeyboard[2][0].Unique; got != model.RestartModuleKey {
		t.Errorf("Для завершенного модуля ожидалась кнопка %s, получено %s", model.RestartModuleKey, got)
	}
}

func TestUserMessage(t *testing.T) {
	if msg := UserMessage(session.ErrNotLoggedIn); !strings.Contains(msg, "/login") {
		t.Errorf("Неожиданный текст: %s", msg)
	}
	wrapped := errors.Join(session.ErrLoadFailed, errors.New("timeout"))
	if msg := UserMessage(wrapped); !strings.Contains(msg, "Обновить") {
		t.Errorf("Неожиданный текст: %s", msg)
	}
}
