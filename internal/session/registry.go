package session

import (
	"context"
	"errors"
	"sync"
)

// Factory создает менеджер для чата
type Factory func(chatID int64, identity Identity) *Manager

// Registry хранит по одному менеджеру на чат
type Registry struct {
	mu       sync.Mutex
	managers map[int64]*Manager
	factory  Factory
}

// NewRegistry создает реестр
func NewRegistry(factory Factory) *Registry {
	return &Registry{managers: make(map[int64]*Manager), factory: factory}
}

// Get возвращает менеджер чата, если он открыт
func (r *Registry) Get(chatID int64) (*Manager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.managers[chatID]
	return m, ok
}

// Open возвращает менеджер чата для identity. Менеджер другого пользователя
// ставится на паузу и закрывается.
func (r *Registry) Open(ctx context.Context, chatID int64, identity Identity) *Manager {
	r.mu.Lock()
	old, ok := r.managers[chatID]
	if ok && old.Identity() == identity {
		r.mu.Unlock()
		return old
	}
	m := r.factory(chatID, identity)
	r.managers[chatID] = m
	r.mu.Unlock()

	if ok {
		old.PauseAll(ctx)
		old.Close()
	}
	return m
}

// Forget ставит на паузу и закрывает менеджер чата
func (r *Registry) Forget(ctx context.Context, chatID int64) {
	r.mu.Lock()
	m, ok := r.managers[chatID]
	delete(r.managers, chatID)
	r.mu.Unlock()

	if ok {
		m.PauseAll(ctx)
		m.Close()
	}
}

// Close ставит на паузу и закрывает все менеджеры, затем ждет записи статусов
// paused до отмены ctx
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	managers := r.managers
	r.managers = make(map[int64]*Manager)
	r.mu.Unlock()

	for _, m := range managers {
		m.PauseAll(ctx)
		m.Close()
	}

	var errs []error
	for _, m := range managers {
		if err := m.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
