// Package session управляет прохождением модулей одним пользователем: запуском, паузой,
// возобновлением, завершением и перезапуском, сверяя сохраненный прогресс с локальными таймерами.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IT-Nick/mathquiz/internal/domain/grading"
	"github.com/IT-Nick/mathquiz/internal/domain/model"
	"github.com/IT-Nick/mathquiz/internal/infra/timer"
)

// DefaultSettleDelay задержка перед автоматическим возобновлением после загрузки
const DefaultSettleDelay = 500 * time.Millisecond

var (
	ErrNotLoggedIn         = errors.New("not logged in")
	ErrLoadFailed          = errors.New("failed to load modules")
	ErrUnknownModule       = errors.New("unknown module")
	ErrModuleCompleted     = errors.New("module already completed")
	ErrNotStarted          = errors.New("module not started")
	ErrNotCompleted        = errors.New("module is not completed")
	ErrRestartNotConfirmed = errors.New("restart requires confirmation")
	ErrInvalidAnswer       = errors.New("invalid answer")
)

// Identity пользователь, от имени которого выполняются действия. Нулевое значение анонимно.
type Identity struct {
	UserID   int64
	Username string
}

// Anonymous сообщает, что пользователь не вошел
func (i Identity) Anonymous() bool {
	return i.UserID <= 0
}

// Backend хранилище прогресса и справочных данных. GetProgress возвращает nil для не начатого модуля.
type Backend interface {
	ListModules(ctx context.Context) ([]model.Module, error)
	ListQuestions(ctx context.Context, moduleID int64) ([]model.Question, error)
	GetProgress(ctx context.Context, userID, moduleID int64) (*model.Progress, error)
	SaveProgress(ctx context.Context, userID, moduleID int64, update model.ProgressUpdate) (*model.Progress, error)
	DeleteProgress(ctx context.Context, userID, moduleID int64) error
}

// State состояние модуля для пользователя
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StatePaused     State = "paused"
	StateCompleted  State = "completed"
)

// View отображаемое состояние модуля
type View struct {
	Module    model.Module
	State     State
	Remaining int
	Display   string
	Running   bool
	Answered  int
	Score     *grading.Result
}

type entry struct {
	module     model.Module
	state      State
	remaining  int
	timer      *timer.Timer
	starting   bool
	completing bool
	pending    func() bool
	questions  []model.Question
	answers    map[int]grading.Answer
	score      *grading.Result
}

// Manager реестр модулей одного пользователя: не более одного таймера на модуль
type Manager struct {
	backend  Backend
	identity Identity

	mu      sync.Mutex
	modules []model.Module
	entries map[int64]*entry
	loaded  bool
	closed  bool

	settleDelay time.Duration
	timerOpts   []timer.Option
	onTick      func(moduleID int64, formatted string, paused bool)
	onComplete  func(moduleID int64, result grading.Result)
	logger      *log.Logger
	after       func(d time.Duration, f func()) func() bool
}

// Option настройка менеджера
type Option func(*Manager)

// WithSettleDelay задает задержку автоматического возобновления после загрузки
func WithSettleDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.settleDelay = d
		}
	}
}

// WithTimerOptions передает настройки создаваемым таймерам
func WithTimerOptions(opts ...timer.Option) Option {
	return func(m *Manager) { m.timerOpts = append(m.timerOpts, opts...) }
}

// OnTick задает обработчик тиков таймеров
func OnTick(f func(moduleID int64, formatted string, paused bool)) Option {
	return func(m *Manager) { m.onTick = f }
}

// OnComplete задает обработчик завершения модуля (по истечении времени или отправке)
func OnComplete(f func(moduleID int64, result grading.Result)) Option {
	return func(m *Manager) { m.onComplete = f }
}

// WithLogger задает логгер
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager создает менеджер для пользователя identity
func NewManager(backend Backend, identity Identity, opts ...Option) *Manager {
	m := &Manager{
		backend:     backend,
		identity:    identity,
		entries:     make(map[int64]*entry),
		settleDelay: DefaultSettleDelay,
		logger:      log.Default(),
		after: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Identity возвращает пользователя менеджера
func (m *Manager) Identity() Identity {
	return m.identity
}

// Loaded сообщает, что модули успешно загружены
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Load загружает модули и прогресс пользователя по каждому модулю параллельно.
// Модули в статусе in_progress возобновляются с сохраненного остатка после задержки,
// если пользователь не запустил их раньше. Уже работающие таймеры сохраняются.
func (m *Manager) Load(ctx context.Context) error {
	modules, err := m.backend.ListModules(ctx)
	if err != nil {
		m.fail()
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	records := make([]*model.Progress, len(modules))
	if !m.identity.Anonymous() {
		errs := make([]error, len(modules))
		var wg sync.WaitGroup
		for i, mod := range modules {
			wg.Add(1)
			go func(i int, moduleID int64) {
				defer wg.Done()
				rec, err := m.backend.GetProgress(ctx, m.identity.UserID, moduleID)
				if errors.Is(err, model.ErrMalformedPayload) {
					m.logger.Printf("Session user=%d: ignoring malformed progress of module %d: %v", m.identity.UserID, moduleID, err)
					rec, err = nil, nil
				}
				records[i], errs[i] = rec, err
			}(i, mod.ID)
		}
		wg.Wait()

		if err := errors.Join(errs...); err != nil {
			m.fail()
			return fmt.Errorf("%w: %w", ErrLoadFailed, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}

	entries := make(map[int64]*entry, len(modules))
	for i, mod := range modules {
		if old, ok := m.entries[mod.ID]; ok && (old.timer != nil || old.starting || old.completing) {
			old.module = mod
			entries[mod.ID] = old
			continue
		}
		if old, ok := m.entries[mod.ID]; ok {
			old.cancelPending()
		}

		e := entryFromRecord(mod, records[i])
		entries[mod.ID] = e
		if e.state == StateInProgress {
			m.scheduleResumeLocked(e)
		}
	}
	for id, old := range m.entries {
		if _, ok := entries[id]; !ok {
			old.cancelPending()
			if old.timer != nil {
				old.timer.Stop()
			}
		}
	}

	m.modules = modules
	m.entries = entries
	m.loaded = true
	return nil
}

func (m *Manager) fail() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = false
	m.modules = nil
}

// entryFromRecord восстанавливает состояние модуля. Запись с неизвестным статусом считается отсутствующей.
func entryFromRecord(mod model.Module, rec *model.Progress) *entry {
	e := &entry{module: mod, state: StateNotStarted, remaining: mod.DurationSeconds()}
	if rec == nil {
		return e
	}

	remaining := rec.RemainingSeconds
	if remaining < 0 {
		remaining = 0
	}

	switch rec.Status {
	case model.StatusInProgress:
		e.state, e.remaining = StateInProgress, remaining
	case model.StatusPaused:
		e.state, e.remaining = StatePaused, remaining
	case model.StatusCompleted:
		e.state, e.remaining = StateCompleted, remaining
		if rec.RightAnswer != nil || rec.WrongAnswer != nil {
			e.score = &grading.Result{Right: deref(rec.RightAnswer), Wrong: deref(rec.WrongAnswer)}
		}
	}
	return e
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func (e *entry) cancelPending() {
	if e.pending != nil {
		e.pending()
		e.pending = nil
	}
}

func (m *Manager) scheduleResumeLocked(e *entry) {
	id := e.module.ID
	e.pending = m.after(m.settleDelay, func() { m.autoResume(id) })
}

// autoResume запускает таймер модуля, загруженного в статусе in_progress, если его еще не запустили вручную
func (m *Manager) autoResume(moduleID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[moduleID]
	if m.closed || e == nil || e.timer != nil || e.starting || e.state != StateInProgress {
		return
	}
	e.pending = nil
	m.logger.Printf("Session user=%d: auto-resuming module %d at %s", m.identity.UserID, moduleID, timer.Format(e.remaining))
	m.startTimerLocked(e)
}

func (m *Manager) lookup(moduleID int64) (*entry, error) {
	if m.identity.Anonymous() {
		return nil, ErrNotLoggedIn
	}
	e := m.entries[moduleID]
	if e == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownModule, moduleID)
	}
	return e, nil
}

// Start запускает модуль. Не начатый модуль создает запись in_progress с полной длительностью,
// модуль на паузе возобновляется, повторный запуск работающего модуля ничего не делает.
func (m *Manager) Start(ctx context.Context, moduleID int64) error {
	m.mu.Lock()
	e, err := m.lookup(moduleID)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	switch {
	case e.state == StateCompleted || e.completing:
		m.mu.Unlock()
		return ErrModuleCompleted
	case e.timer != nil:
		t := e.timer
		resume := t.Paused()
		if resume {
			e.state = StateInProgress
		}
		m.mu.Unlock()
		if resume {
			t.Resume()
		}
		return nil
	case e.starting:
		m.mu.Unlock()
		return nil
	case e.state == StateInProgress:
		e.cancelPending()
		m.startTimerLocked(e)
		m.mu.Unlock()
		return nil
	}

	fresh := e.state == StateNotStarted
	remaining := e.remaining
	if fresh {
		remaining = e.module.DurationSeconds()
	}
	e.starting = true
	m.mu.Unlock()

	_, err = m.backend.SaveProgress(ctx, m.identity.UserID, moduleID, model.ProgressUpdate{
		Status:           model.StatusInProgress,
		RemainingSeconds: remaining,
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	e.starting = false
	if err != nil {
		return fmt.Errorf("failed to start module %d: %w", moduleID, err)
	}
	if m.closed || m.entries[moduleID] != e {
		return nil
	}

	e.remaining = remaining
	if fresh {
		e.answers = nil
		e.score = nil
	}
	m.startTimerLocked(e)
	return nil
}

func (m *Manager) startTimerLocked(e *entry) {
	id := e.module.ID
	remaining := e.remaining

	opts := append([]timer.Option{
		timer.WithLogger(m.logger),
		timer.WithLabel(fmt.Sprintf("user=%d module=%d", m.identity.UserID, id)),
	}, m.timerOpts...)

	t := timer.New(e.module.DurationMinutes, &remaining, m.saveFunc(id), opts...)
	e.timer = t
	e.state = StateInProgress
	t.Start(func(formatted string, paused bool) {
		if m.onTick != nil {
			m.onTick(id, formatted, paused)
		}
	})
}

// saveFunc сохраняет состояние таймера. Завершение по истечении времени несет результат проверки текущих ответов.
func (m *Manager) saveFunc(moduleID int64) timer.SaveFunc {
	return func(ctx context.Context, status model.Status, remaining int) error {
		if status == model.StatusCompleted {
			_, err := m.complete(ctx, moduleID, remaining)
			if errors.Is(err, ErrModuleCompleted) {
				return nil
			}
			return err
		}

		m.mu.Lock()
		e := m.entries[moduleID]
		if e == nil || e.state == StateCompleted || e.completing {
			m.mu.Unlock()
			return nil
		}
		e.remaining = remaining
		m.mu.Unlock()

		_, err := m.backend.SaveProgress(ctx, m.identity.UserID, moduleID, model.ProgressUpdate{
			Status:           status,
			RemainingSeconds: remaining,
		})
		return err
	}
}

// Pause ставит модуль на паузу и сохраняет статус paused
func (m *Manager) Pause(ctx context.Context, moduleID int64) error {
	m.mu.Lock()
	e, err := m.lookup(moduleID)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	switch {
	case e.state == StateCompleted || e.completing:
		m.mu.Unlock()
		return ErrModuleCompleted
	case e.state == StateNotStarted:
		m.mu.Unlock()
		return ErrNotStarted
	case e.timer != nil:
		t := e.timer
		e.state = StatePaused
		m.mu.Unlock()
		t.Pause()
		return nil
	case e.state == StatePaused:
		m.mu.Unlock()
		return nil
	}

	// in_progress после загрузки, таймер еще не запущен
	e.cancelPending()
	e.state = StatePaused
	remaining := e.remaining
	m.mu.Unlock()

	_, err = m.backend.SaveProgress(ctx, m.identity.UserID, moduleID, model.ProgressUpdate{
		Status:           model.StatusPaused,
		RemainingSeconds: remaining,
	})
	if err != nil {
		return fmt.Errorf("failed to pause module %d: %w", moduleID, err)
	}
	return nil
}

// Resume возобновляет модуль на паузе
func (m *Manager) Resume(ctx context.Context, moduleID int64) error {
	m.mu.Lock()
	e, err := m.lookup(moduleID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	state := e.state
	m.mu.Unlock()

	switch state {
	case StateNotStarted:
		return ErrNotStarted
	case StateCompleted:
		return ErrModuleCompleted
	}
	return m.Start(ctx, moduleID)
}

// PauseAll ставит на паузу все работающие таймеры (уход пользователя, остановка бота)
func (m *Manager) PauseAll(ctx context.Context) {
	m.mu.Lock()
	var timers []*timer.Timer
	for _, e := range m.entries {
		e.cancelPending()
		if e.timer != nil && e.state == StateInProgress {
			e.state = StatePaused
			timers = append(timers, e.timer)
		}
	}
	m.mu.Unlock()

	for _, t := range timers {
		t.Pause()
	}
}

// Flush ждет, пока таймеры выполнят все поставленные в очередь сохранения
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	var timers []*timer.Timer
	for _, e := range m.entries {
		if e.timer != nil {
			timers = append(timers, e.timer)
		}
	}
	m.mu.Unlock()

	for _, t := range timers {
		if err := t.Flush(ctx); err != nil {
			return fmt.Errorf("session.Flush user=%d: %w", m.identity.UserID, err)
		}
	}
	return nil
}

// Questions возвращает вопросы модуля, загружая их при первом обращении
func (m *Manager) Questions(ctx context.Context, moduleID int64) ([]model.Question, error) {
	m.mu.Lock()
	e, err := m.lookup(moduleID)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if e.questions != nil {
		questions := e.questions
		m.mu.Unlock()
		return questions, nil
	}
	m.mu.Unlock()

	questions, err := m.backend.ListQuestions(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions for module %d: %w", moduleID, err)
	}
	if questions == nil {
		questions = []model.Question{}
	}

	m.mu.Lock()
	e.questions = questions
	m.mu.Unlock()
	return questions, nil
}

// CachedQuestions возвращает уже загруженные вопросы модуля без обращения к хранилищу
func (m *Manager) CachedQuestions(moduleID int64) []model.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e := m.entries[moduleID]; e != nil {
		return e.questions
	}
	return nil
}

// Answer записывает ответ на вопрос index (с нуля) текущей попытки
func (m *Manager) Answer(moduleID int64, index int, values ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.lookup(moduleID)
	if err != nil {
		return err
	}
	switch {
	case e.state == StateCompleted || e.completing:
		return ErrModuleCompleted
	case e.state == StateNotStarted:
		return ErrNotStarted
	case index < 0, e.questions != nil && index >= len(e.questions):
		return fmt.Errorf("%w: question %d", ErrInvalidAnswer, index+1)
	}

	if e.answers == nil {
		e.answers = make(map[int]grading.Answer)
	}
	e.answers[index] = append(grading.Answer(nil), values...)
	return nil
}

// Submit досрочно завершает модуль: проверяет текущие ответы и сохраняет статус completed
func (m *Manager) Submit(ctx context.Context, moduleID int64) (grading.Result, error) {
	m.mu.Lock()
	e, err := m.lookup(moduleID)
	if err != nil {
		m.mu.Unlock()
		return grading.Result{}, err
	}
	if e.state == StateNotStarted {
		m.mu.Unlock()
		return grading.Result{}, ErrNotStarted
	}
	remaining := e.remaining
	if e.timer != nil {
		remaining = e.timer.Remaining()
	}
	m.mu.Unlock()

	return m.complete(ctx, moduleID, remaining)
}

// complete останавливает таймер, проверяет ответы и сохраняет завершение.
// Состояние становится терминальным даже если сохранение не удалось.
func (m *Manager) complete(ctx context.Context, moduleID int64, remaining int) (grading.Result, error) {
	m.mu.Lock()
	e := m.entries[moduleID]
	if e == nil {
		m.mu.Unlock()
		return grading.Result{}, fmt.Errorf("%w: %d", ErrUnknownModule, moduleID)
	}
	if e.state == StateCompleted || e.completing {
		m.mu.Unlock()
		return grading.Result{}, ErrModuleCompleted
	}
	e.completing = true
	e.cancelPending()
	if e.timer != nil {
		e.timer.Stop()
	}
	answers := make(map[int]grading.Answer, len(e.answers))
	for k, v := range e.answers {
		answers[k] = v
	}
	total := e.module.TotalQuestions
	m.mu.Unlock()

	questions, err := m.Questions(ctx, moduleID)
	if err != nil {
		m.logger.Printf("Session user=%d: grading module %d without questions: %v", m.identity.UserID, moduleID, err)
	}
	result := grading.Grade(grading.Build(referenceAnswers(questions, total), answers))

	right, wrong := result.Right, result.Wrong
	_, saveErr := m.backend.SaveProgress(ctx, m.identity.UserID, moduleID, model.ProgressUpdate{
		Status:           model.StatusCompleted,
		RemainingSeconds: remaining,
		RightAnswer:      &right,
		WrongAnswer:      &wrong,
	})

	m.mu.Lock()
	e.completing = false
	e.state = StateCompleted
	e.remaining = remaining
	e.timer = nil
	e.score = &result
	m.mu.Unlock()

	m.logger.Printf("Session user=%d: module %d completed %d/%d", m.identity.UserID, moduleID, result.Right, result.Total())
	if m.onComplete != nil {
		m.onComplete(moduleID, result)
	}

	if saveErr != nil {
		return result, fmt.Errorf("failed to save completion of module %d: %w", moduleID, saveErr)
	}
	return result, nil
}

// referenceAnswers эталонные ответы по порядку вопросов. Без загруженных вопросов
// каждый из total вопросов проверяется без эталона и считается неверным.
func referenceAnswers(questions []model.Question, total int) []string {
	if len(questions) == 0 {
		return make([]string, total)
	}
	refs := make([]string, len(questions))
	for i, q := range questions {
		refs[i] = q.CorrectAnswer
	}
	return refs
}

// Restart удаляет прогресс завершенного модуля после подтверждения
func (m *Manager) Restart(ctx context.Context, moduleID int64, confirmed bool) error {
	m.mu.Lock()
	e, err := m.lookup(moduleID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if e.state != StateCompleted {
		m.mu.Unlock()
		return ErrNotCompleted
	}
	m.mu.Unlock()

	if !confirmed {
		return ErrRestartNotConfirmed
	}

	if err := m.backend.DeleteProgress(ctx, m.identity.UserID, moduleID); err != nil {
		return fmt.Errorf("failed to restart module %d: %w", moduleID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e.state = StateNotStarted
	e.remaining = e.module.DurationSeconds()
	e.answers = nil
	e.score = nil
	return nil
}

// Views возвращает состояние всех модулей в порядке загрузки
func (m *Manager) Views() []View {
	m.mu.Lock()
	defer m.mu.Unlock()

	views := make([]View, 0, len(m.modules))
	for _, mod := range m.modules {
		if e := m.entries[mod.ID]; e != nil {
			views = append(views, e.view())
		}
	}
	return views
}

// View возвращает состояние одного модуля
func (m *Manager) View(moduleID int64) (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entries[moduleID]
	if e == nil {
		return View{}, false
	}
	return e.view(), true
}

func (e *entry) view() View {
	v := View{
		Module:    e.module,
		State:     e.state,
		Remaining: e.remaining,
		Answered:  countAnswered(e.answers),
	}
	if e.timer != nil {
		v.Remaining = e.timer.Remaining()
		v.Running = e.timer.Running()
	}
	if e.score != nil {
		score := *e.score
		v.Score = &score
	}
	v.Display = timer.Format(v.Remaining)
	return v
}

func countAnswered(answers map[int]grading.Answer) int {
	n := 0
	for _, a := range answers {
		if !a.Blank() {
			n++
		}
	}
	return n
}

// Close останавливает все таймеры и отложенные возобновления
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for _, e := range m.entries {
		e.cancelPending()
		if e.timer != nil {
			e.timer.Stop()
		}
	}
}
