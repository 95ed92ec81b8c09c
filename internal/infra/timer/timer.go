// Package timer реализует обратный отсчет времени модуля с автосохранением прогресса.
package timer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
)

const (
	// DefaultTickInterval период одного тика отсчета
	DefaultTickInterval = time.Second
	// DefaultAutosaveInterval период между автосохранениями во время отсчета
	DefaultAutosaveInterval = 10 * time.Second
)

// SaveFunc сохраняет статус и оставшееся время. Вызывается асинхронно и строго по очереди
// в порядке изменений состояния, ошибка только логируется.
type SaveFunc func(ctx context.Context, status model.Status, remainingSeconds int) error

// TickFunc вызывается на каждом тике с отформатированным временем и признаком паузы
type TickFunc func(formatted string, paused bool)

// Timer обратный отсчет для одного модуля. Безопасен для конкурентного использования.
type Timer struct {
	mu        sync.Mutex
	remaining int
	paused    bool
	running   bool
	expired   bool
	done      chan struct{}
	lastSave  time.Time
	onTick    TickFunc

	save             SaveFunc
	tickInterval     time.Duration
	autosaveInterval time.Duration
	now              func() time.Time
	dispatch         func(func())
	logger           *log.Logger
	label            string

	qmu      sync.Mutex
	queue    []pendingSave
	draining bool
	idle     chan struct{}
}

type pendingSave struct {
	status    model.Status
	remaining int
}

// Option настраивает таймер
type Option func(*Timer)

// WithTickInterval задает период тика
func WithTickInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.tickInterval = d
		}
	}
}

// WithAutosaveInterval задает период автосохранения
func WithAutosaveInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.autosaveInterval = d
		}
	}
}

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(t *Timer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithDispatcher задает способ запуска обработчика очереди сохранений. По умолчанию
// обработчик выполняется в отдельной горутине. Одновременно работает не больше одного обработчика.
func WithDispatcher(dispatch func(func())) Option {
	return func(t *Timer) {
		if dispatch != nil {
			t.dispatch = dispatch
		}
	}
}

// WithLogger задает логгер для ошибок сохранения
func WithLogger(l *log.Logger) Option {
	return func(t *Timer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithLabel задает метку таймера для логов (например, "user=7 module=3")
func WithLabel(label string) Option {
	return func(t *Timer) {
		t.label = label
	}
}

// New создает таймер. Если resumeSeconds не nil, отсчет продолжается с него,
// иначе начинается с durationMinutes*60. Отрицательные значения приводятся к нулю.
func New(durationMinutes int, resumeSeconds *int, save SaveFunc, opts ...Option) *Timer {
	remaining := durationMinutes * 60
	if resumeSeconds != nil {
		remaining = *resumeSeconds
	}
	if remaining < 0 {
		remaining = 0
	}

	t := &Timer{
		remaining:        remaining,
		save:             save,
		tickInterval:     DefaultTickInterval,
		autosaveInterval: DefaultAutosaveInterval,
		now:              time.Now,
		dispatch:         func(f func()) { go f() },
		logger:           log.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start запускает отсчет. Повторный вызов при запущенном таймере ничего не делает
// и возвращает false.
func (t *Timer) Start(onTick TickFunc) bool {
	t.mu.Lock()
	if t.running || t.expired {
		t.mu.Unlock()
		return false
	}
	t.running = true
	t.onTick = onTick
	t.lastSave = t.now()
	t.done = make(chan struct{})
	done := t.done
	t.mu.Unlock()

	go t.loop(done)
	return true
}

func (t *Timer) loop(done chan struct{}) {
	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if !t.tick() {
				return
			}
		}
	}
}

// tick выполняет один шаг отсчета. Возвращает false, когда отсчет завершен.
func (t *Timer) tick() bool {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return false
	}
	onTick := t.onTick

	if t.paused {
		formatted := Format(t.remaining)
		t.mu.Unlock()
		if onTick != nil {
			onTick(formatted, true)
		}
		return true
	}

	if t.remaining > 0 {
		t.remaining--
	}
	remaining := t.remaining

	var (
		status  model.Status
		persist bool
	)
	switch {
	case remaining == 0:
		t.expired = true
		t.stopLocked()
		status, persist = model.StatusCompleted, true
	case t.now().Sub(t.lastSave) > t.autosaveInterval:
		t.lastSave = t.now()
		status, persist = model.StatusInProgress, true
	}
	if persist {
		t.enqueue(status, remaining)
	}
	t.mu.Unlock()

	if persist {
		t.kick()
	}
	if onTick != nil {
		onTick(Format(remaining), false)
	}
	return remaining > 0
}

// Pause приостанавливает отсчет и сразу сохраняет статус paused
func (t *Timer) Pause() {
	t.mu.Lock()
	if t.paused || t.expired {
		t.mu.Unlock()
		return
	}
	t.paused = true
	t.enqueue(model.StatusPaused, t.remaining)
	t.mu.Unlock()

	t.kick()
}

// Resume возобновляет отсчет и сразу сохраняет статус in_progress
func (t *Timer) Resume() {
	t.mu.Lock()
	if !t.paused || t.expired {
		t.mu.Unlock()
		return
	}
	t.paused = false
	t.lastSave = t.now()
	t.enqueue(model.StatusInProgress, t.remaining)
	t.mu.Unlock()

	t.kick()
}

// Stop останавливает отсчет. Повторные вызовы безопасны.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Timer) stopLocked() {
	if !t.running {
		return
	}
	t.running = false
	close(t.done)
}

// Remaining возвращает оставшееся время в секундах
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Formatted возвращает оставшееся время в формате MM:SS
func (t *Timer) Formatted() string {
	return Format(t.Remaining())
}

// Running сообщает, идет ли отсчет
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Paused сообщает, стоит ли таймер на паузе
func (t *Timer) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}

// enqueue ставит сохранение в очередь. Вызывается под t.mu, поэтому очередь
// упорядочена так же, как изменения состояния.
func (t *Timer) enqueue(status model.Status, remaining int) {
	if t.save == nil {
		return
	}
	t.qmu.Lock()
	t.queue = append(t.queue, pendingSave{status: status, remaining: remaining})
	t.qmu.Unlock()
}

// kick запускает обработчик очереди, если он еще не работает
func (t *Timer) kick() {
	t.qmu.Lock()
	if t.draining || len(t.queue) == 0 {
		t.qmu.Unlock()
		return
	}
	t.draining = true
	t.idle = make(chan struct{})
	t.qmu.Unlock()

	t.dispatch(t.drain)
}

func (t *Timer) drain() {
	for {
		t.qmu.Lock()
		if len(t.queue) == 0 {
			t.draining = false
			close(t.idle)
			t.qmu.Unlock()
			return
		}
		next := t.queue[0]
		t.queue = t.queue[1:]
		t.qmu.Unlock()

		if err := t.save(context.Background(), next.status, next.remaining); err != nil {
			t.logger.Printf("Failed to save progress %s (status=%s remaining=%d): %v", t.label, next.status, next.remaining, err)
		}
	}
}

// Flush ждет, пока будут выполнены все поставленные в очередь сохранения,
// или отмены ctx.
func (t *Timer) Flush(ctx context.Context) error {
	t.qmu.Lock()
	if !t.draining {
		t.qmu.Unlock()
		return nil
	}
	idle := t.idle
	t.qmu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Format переводит секунды в MM:SS. Отрицательные значения отображаются как 00:00.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
