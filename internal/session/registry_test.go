package session

import (
	"context"
	"testing"
	"time"

	"github.com/IT-Nick/mathquiz/internal/domain/model"
	"github.com/IT-Nick/mathquiz/internal/infra/timer"
)

// slowBackend задерживает сохранение статуса paused
type slowBackend struct {
	*fakeBackend
	delay time.Duration
}

func (b *slowBackend) SaveProgress(ctx context.Context, userID, moduleID int64, update model.ProgressUpdate) (*model.Progress, error) {
	if update.Status == model.StatusPaused {
		time.Sleep(b.delay)
	}
	return b.fakeBackend.SaveProgress(ctx, userID, moduleID, update)
}

func TestRegistry_OpenReusesSameIdentity(t *testing.T) {
	backend := newFakeBackend()
	created := 0
	r := NewRegistry(func(chatID int64, identity Identity) *Manager {
		created++
		m, _ := newTestManager(t, backend, identity)
		return m
	})
	ctx := context.Background()

	a := r.Open(ctx, 100, Identity{UserID: 7})
	b := r.Open(ctx, 100, Identity{UserID: 7})
	if a != b || created != 1 {
		t.Fatalf("Для того же пользователя ожидался тот же менеджер, создано %d", created)
	}
	if got, ok := r.Get(100); !ok || got != a {
		t.Fatal("Get должен вернуть открытый менеджер")
	}
}

func TestRegistry_SwitchingUserPausesPrevious(t *testing.T) {
	backend := newFakeBackend()
	r := NewRegistry(func(chatID int64, identity Identity) *Manager {
		m, _ := newTestManager(t, backend, identity)
		return m
	})
	ctx := context.Background()

	first := r.Open(ctx, 100, Identity{UserID: 7})
	if err := first.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := first.Start(ctx, 3); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second := r.Open(ctx, 100, Identity{UserID: 8})
	if second == first {
		t.Fatal("Другой пользователь должен получить новый менеджер")
	}

	saves := backend.savesSnapshot()
	if last := saves[len(saves)-1]; last.Status != model.StatusPaused {
		t.Fatalf("Модуль прежнего пользователя должен быть на паузе, последнее сохранение %+v", last)
	}
	if v, _ := first.View(3); v.Running {
		t.Fatal("Таймер прежнего пользователя должен быть остановлен")
	}

	r.Forget(ctx, 100)
	if _, ok := r.Get(100); ok {
		t.Fatal("После Forget менеджер не должен оставаться в реестре")
	}
}

func TestRegistry_CloseWaitsForPausedSave(t *testing.T) {
	backend := newFakeBackend()
	slow := &slowBackend{fakeBackend: backend, delay: 50 * time.Millisecond}
	r := NewRegistry(func(chatID int64, identity Identity) *Manager {
		return NewManager(slow, identity, WithTimerOptions(timer.WithTickInterval(time.Hour)))
	})
	ctx := context.Background()

	m := r.Open(ctx, 100, Identity{UserID: 7})
	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := m.Start(ctx, 3); err != nil {
		t.Fatalf("Start: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.Close(shutdownCtx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	saves := backend.savesSnapshot()
	if last := saves[len(saves)-1]; last.Status != model.StatusPaused {
		t.Fatalf("Close должен дождаться сохранения paused, последнее сохранение %+v", last)
	}
}
