package timer

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
)

type saveCall struct {
	status    model.Status
	remaining int
}

// recorder запоминает вызовы сохранения
type recorder struct {
	mu    sync.Mutex
	calls []saveCall
	err   error
}

func (r *recorder) save(_ context.Context, status model.Status, remaining int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, saveCall{status: status, remaining: remaining})
	return r.err
}

func (r *recorder) snapshot() []saveCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]saveCall(nil), r.calls...)
}

func (r *recorder) count(status model.Status) int {
	n := 0
	for _, c := range r.snapshot() {
		if c.status == status {
			n++
		}
	}
	return n
}

// fakeClock ручные часы для проверки автосохранения
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func syncDispatch(f func()) { f() }

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// newManualTimer создает таймер, тики которого вызываются тестом напрямую
func newManualTimer(durationMinutes int, resume *int, rec *recorder, clock *fakeClock) *Timer {
	t := New(durationMinutes, resume, rec.save,
		WithClock(clock.Now),
		WithDispatcher(syncDispatch),
		WithLogger(quietLogger()),
		WithTickInterval(time.Hour),
	)
	t.mu.Lock()
	t.running = true
	t.done = make(chan struct{})
	t.lastSave = clock.Now()
	t.mu.Unlock()
	return t
}

func intPtr(v int) *int { return &v }

func TestFormat(t *testing.T) {
	cases := map[int]string{
		0:    "00:00",
		5:    "00:05",
		42:   "00:42",
		60:   "01:00",
		300:  "05:00",
		239:  "03:59",
		3599: "59:59",
		6000: "100:00",
		-7:   "00:00",
	}
	for seconds, want := range cases {
		if got := Format(seconds); got != want {
			t.Errorf("Format(%d) = %q, ожидалось %q", seconds, got, want)
		}
	}
}

func TestNew_InitialRemaining(t *testing.T) {
	if got := New(5, nil, nil).Formatted(); got != "05:00" {
		t.Errorf("Ожидалось 05:00, получено %s", got)
	}
	if got := New(5, intPtr(42), nil).Formatted(); got != "00:42" {
		t.Errorf("Ожидалось 00:42, получено %s", got)
	}
	if got := New(5, intPtr(-10), nil).Remaining(); got != 0 {
		t.Errorf("Отрицательное значение должно приводиться к 0, получено %d", got)
	}
	if got := New(-1, nil, nil).Remaining(); got != 0 {
		t.Errorf("Отрицательная длительность должна приводиться к 0, получено %d", got)
	}
	if got := New(5, intPtr(0), nil).Remaining(); got != 0 {
		t.Errorf("Нулевое значение возобновления не должно заменяться длительностью, получено %d", got)
	}
}

func TestTick_SixtyOneTicks(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{now: time.Unix(0, 0)}
	tm := newManualTimer(5, nil, rec, clock)

	var last string
	tm.onTick = func(formatted string, _ bool) { last = formatted }
	for i := 0; i < 61; i++ {
		tm.tick()
	}

	if last != "03:59" {
		t.Fatalf("После 61 тика ожидалось 03:59, получено %s", last)
	}
}

func TestTick_ExpiryPersistsCompletedOnce(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{now: time.Unix(0, 0)}
	tm := newManualTimer(5, intPtr(42), rec, clock)

	for i := 0; i < 100; i++ {
		tm.tick()
	}

	if got := rec.count(model.StatusCompleted); got != 1 {
		t.Fatalf("Ожидался ровно один вызов completed, получено %d", got)
	}
	if tm.Running() {
		t.Error("Таймер должен остановиться по истечении времени")
	}
	if tm.Start(nil) {
		t.Error("Истекший таймер не должен запускаться повторно")
	}
	if got := tm.Remaining(); got != 0 {
		t.Errorf("Оставшееся время не должно быть отрицательным, получено %d", got)
	}
	calls := rec.snapshot()
	if last := calls[len(calls)-1]; last.status != model.StatusCompleted || last.remaining != 0 {
		t.Errorf("Последний вызов должен быть completed с 0, получено %+v", last)
	}
}

func TestTick_AutosaveAfterInterval(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{now: time.Unix(0, 0)}
	tm := newManualTimer(5, nil, rec, clock)

	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		tm.tick()
	}
	if got := len(rec.snapshot()); got != 0 {
		t.Fatalf("Ровно 10 секунд не превышают интервал, сохранений быть не должно, получено %d", got)
	}

	clock.Advance(time.Second)
	tm.tick()

	calls := rec.snapshot()
	if len(calls) != 1 {
		t.Fatalf("Ожидалось одно автосохранение, получено %d", len(calls))
	}
	if calls[0].status != model.StatusInProgress || calls[0].remaining != 300-11 {
		t.Errorf("Неожиданное автосохранение: %+v", calls[0])
	}

	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		tm.tick()
	}
	if got := len(rec.snapshot()); got != 1 {
		t.Errorf("Часы сохранения должны сбрасываться, получено %d сохранений", got)
	}
}

func TestPauseResume_PreservesRemaining(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{now: time.Unix(0, 0)}
	tm := newManualTimer(1, nil, rec, clock)

	for i := 0; i < 5; i++ {
		tm.tick()
	}
	tm.Pause()
	before := tm.Remaining()

	var pausedTicks int
	tm.onTick = func(_ string, paused bool) {
		if paused {
			pausedTicks++
		}
	}
	for i := 0; i < 30; i++ {
		clock.Advance(time.Second)
		tm.tick()
	}
	tm.Resume()

	if after := tm.Remaining(); after != before || after != 55 {
		t.Fatalf("Пауза не должна менять оставшееся время: до=%d после=%d", before, after)
	}
	if pausedTicks != 30 {
		t.Errorf("Во время паузы onTick должен вызываться с paused=true, получено %d", pausedTicks)
	}

	calls := rec.snapshot()
	if len(calls) != 2 {
		t.Fatalf("Ожидалось два сохранения (paused, in_progress), получено %+v", calls)
	}
	if calls[0] != (saveCall{model.StatusPaused, 55}) || calls[1] != (saveCall{model.StatusInProgress, 55}) {
		t.Errorf("Неожиданные сохранения: %+v", calls)
	}
}

func TestPause_Idempotent(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{now: time.Unix(0, 0)}
	tm := newManualTimer(1, nil, rec, clock)

	tm.Pause()
	tm.Pause()
	tm.Resume()
	tm.Resume()

	if got := len(rec.snapshot()); got != 2 {
		t.Errorf("Повторные pause/resume не должны сохранять повторно, получено %d", got)
	}
}

func TestPause_AfterExpiryIsIgnored(t *testing.T) {
	rec := &recorder{}
	clock := &fakeClock{now: time.Unix(0, 0)}
	tm := newManualTimer(1, intPtr(1), rec, clock)

	tm.tick()
	tm.Pause()
	tm.Resume()

	calls := rec.snapshot()
	if len(calls) != 1 || calls[0].status != model.StatusCompleted {
		t.Errorf("После завершения pause/resume не должны сохраняться, получено %+v", calls)
	}
}

func TestSaveErrorDoesNotStopCountdown(t *testing.T) {
	rec := &recorder{err: errors.New("network down")}
	clock := &fakeClock{now: time.Unix(0, 0)}
	tm := newManualTimer(1, nil, rec, clock)

	tm.Pause()
	tm.Resume()
	for i := 0; i < 20; i++ {
		clock.Advance(2 * time.Second)
		tm.tick()
	}

	if got := tm.Remaining(); got != 40 {
		t.Errorf("Отсчет должен продолжаться при ошибках сохранения, осталось %d", got)
	}
	if !tm.Running() {
		t.Error("Таймер не должен останавливаться из-за ошибок сохранения")
	}
}

func TestStart_Idempotent(t *testing.T) {
	rec := &recorder{}
	tm := New(1, intPtr(3), rec.save,
		WithTickInterval(5*time.Millisecond),
		WithDispatcher(syncDispatch),
		WithLogger(quietLogger()),
	)

	var mu sync.Mutex
	var first, second int
	if !tm.Start(func(string, bool) { mu.Lock(); first++; mu.Unlock() }) {
		t.Fatal("Первый Start должен запустить таймер")
	}
	if tm.Start(func(string, bool) { mu.Lock(); second++; mu.Unlock() }) {
		t.Fatal("Повторный Start не должен запускать второй поток тиков")
	}

	deadline := time.Now().Add(2 * time.Second)
	for tm.Running() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if tm.Running() {
		t.Fatal("Таймер должен был истечь")
	}

	mu.Lock()
	defer mu.Unlock()
	if first != 3 || second != 0 {
		t.Errorf("Ожидалось 3 тика первого обработчика и 0 второго, получено %d/%d", first, second)
	}
	if got := rec.count(model.StatusCompleted); got != 1 {
		t.Errorf("Ожидался один вызов completed, получено %d", got)
	}
	if tm.Start(nil) {
		t.Error("Истекший таймер не должен запускаться повторно")
	}
}

func TestStop_Idempotent(t *testing.T) {
	tm := New(1, nil, nil, WithTickInterval(time.Hour))
	tm.Start(nil)
	tm.Stop()
	tm.Stop()

	if tm.Running() {
		t.Error("Таймер должен быть остановлен")
	}
	if tm.tick() {
		t.Error("Остановленный таймер не должен тикать")
	}
	if got := tm.Remaining(); got != 60 {
		t.Errorf("Остановка не должна менять оставшееся время, получено %d", got)
	}
}

func TestPersist_KeepsOrderWithSlowSave(t *testing.T) {
	rec := &recorder{}
	save := func(ctx context.Context, status model.Status, remaining int) error {
		if status == model.StatusPaused {
			time.Sleep(30 * time.Millisecond)
		}
		return rec.save(ctx, status, remaining)
	}
	tm := New(1, nil, save, WithTickInterval(time.Hour), WithLogger(quietLogger()))
	tm.Start(nil)
	defer tm.Stop()

	tm.Pause()
	tm.Resume()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tm.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	calls := rec.snapshot()
	if len(calls) != 2 {
		t.Fatalf("Ожидалось два сохранения, получено %+v", calls)
	}
	if calls[0].status != model.StatusPaused || calls[1].status != model.StatusInProgress {
		t.Errorf("Сохранения должны выполняться в порядке действий, получено %+v", calls)
	}
	if tm.Paused() {
		t.Error("Таймер не должен оставаться на паузе после Resume")
	}
}

func TestFlush_RespectsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	save := func(context.Context, model.Status, int) error {
		<-release
		return nil
	}
	tm := New(1, nil, save, WithTickInterval(time.Hour), WithLogger(quietLogger()))
	tm.Pause()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := tm.Flush(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Ожидалась ошибка контекста, получено %v", err)
	}
}

func TestFlush_NothingQueued(t *testing.T) {
	tm := New(1, nil, nil)
	if err := tm.Flush(context.Background()); err != nil {
		t.Errorf("Flush без сохранений должен сразу возвращать nil, получено %v", err)
	}
}
